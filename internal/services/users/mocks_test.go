package users

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testOpts = Options{
	SearchMaxResults:  100,
	SuggestLimit:      10,
	SuggestCacheTTL:   time.Minute,
	BlobDeleteTimeout: time.Second,
}

// MockRepo is a mock implementation of Repository
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) FindByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) NameTakenByOther(ctx context.Context, name string, exclude bson.ObjectID) (bool, error) {
	args := m.Called(ctx, name, exclude)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) UpdateProfile(ctx context.Context, id bson.ObjectID, patch ProfilePatch) (*User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) AddSection(ctx context.Context, userID bson.ObjectID, section Section) (*User, error) {
	args := m.Called(ctx, userID, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) DeleteSection(ctx context.Context, userID, sectionID bson.ObjectID) (*Section, *User, error) {
	args := m.Called(ctx, userID, sectionID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*Section), args.Get(1).(*User), args.Error(2)
}

func (m *MockRepo) ToggleLike(ctx context.Context, actorID, targetID bson.ObjectID) (*User, bool, error) {
	args := m.Called(ctx, actorID, targetID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*User), args.Bool(1), args.Error(2)
}

func (m *MockRepo) ListLiked(ctx context.Context, actorID bson.ObjectID) ([]LikedUser, error) {
	args := m.Called(ctx, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LikedUser), args.Error(1)
}

func (m *MockRepo) Search(ctx context.Context, q SearchQuery) ([]*User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*User), args.Error(1)
}

func (m *MockRepo) Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Suggestion), args.Error(1)
}

// MockBlobs is a mock implementation of BlobRemover
type MockBlobs struct {
	mock.Mock
}

func (m *MockBlobs) RemoveByURL(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// MockBus is a mock implementation of Bus
type MockBus struct {
	mock.Mock
}

func (m *MockBus) Broadcast(ctx context.Context, ev Event) {
	m.Called(ctx, ev)
}

// memCache is an in-memory SuggestCache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func newTestService(repo *MockRepo, blobs *MockBlobs, bus *MockBus) *Service {
	return NewService(repo, blobs, nil, bus, silentLogger, testOpts)
}
