package users

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"
)

// Options tunes the limits the service enforces.
type Options struct {
	SearchMaxResults  int
	SuggestLimit      int
	SuggestCacheTTL   time.Duration
	BlobDeleteTimeout time.Duration
}

// Service handles profile, section, search and like business logic
type Service struct {
	repo  Repository
	blobs BlobRemover
	cache SuggestCache
	bus   Bus
	log   *slog.Logger
	opts  Options

	cleanups sync.WaitGroup
}

// NewService creates a new users service. cache may be nil.
func NewService(repo Repository, blobs BlobRemover, cache SuggestCache, bus Bus, log *slog.Logger, opts Options) *Service {
	return &Service{
		repo:  repo,
		blobs: blobs,
		cache: cache,
		bus:   bus,
		log:   log,
		opts:  opts,
	}
}

// UserResponse wraps a single user.
type UserResponse struct {
	Message string `json:"message,omitempty" example:"Profile updated successfully"`
	User    *User  `json:"user"`
}

// Get returns the public view of a user.
func (s *Service) Get(ctx context.Context, id bson.ObjectID) (*UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserResponse{User: user}, nil
}

// WaitCleanups blocks until scheduled blob deletions have finished.
func (s *Service) WaitCleanups() {
	s.cleanups.Wait()
}

// removeBlobs deletes urls in the background. The caller's mutation is
// already persisted; failures are only logged.
func (s *Service) removeBlobs(ctx context.Context, userID bson.ObjectID, urls []string) {
	if s.blobs == nil {
		return
	}

	pending := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			pending = append(pending, u)
		}
	}
	if len(pending) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	s.cleanups.Add(1)
	go func() {
		defer s.cleanups.Done()

		ctx, cancel := context.WithTimeout(ctx, s.opts.BlobDeleteTimeout)
		defer cancel()

		var g errgroup.Group
		g.SetLimit(4)
		for _, u := range pending {
			g.Go(func() error {
				if err := s.blobs.RemoveByURL(ctx, u); err != nil {
					s.log.Warn("failed to delete blob", "user_id", userID.Hex(), "url", u, "error", err)
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (s *Service) publish(ctx context.Context, ev Event) {
	if s.bus == nil {
		return
	}
	ev.At = time.Now().UTC()
	s.bus.Broadcast(ctx, ev)
}
