package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func profileEvent(ev Event) bool { return ev.Type == EventProfileUpdated }

func TestUpdateProfile_Forbidden(t *testing.T) {
	repo, blobs, bus := &MockRepo{}, &MockBlobs{}, &MockBus{}
	svc := newTestService(repo, blobs, bus)

	_, err := svc.UpdateProfile(context.Background(), bson.NewObjectID(), bson.NewObjectID(), UpdateProfileRequest{City: strPtr("Pune")})

	assert.ErrorIs(t, err, ErrForbidden)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_AbsentFieldsAreNotTouched(t *testing.T) {
	id := bson.NewObjectID()
	current := &User{ID: id, Name: "alice", City: "Pune", Profession: "plumber", Fee: 300}
	updated := &User{ID: id, Name: "alice", City: "Pune", Profession: "plumber", Fee: 0}

	repo, blobs, bus := &MockRepo{}, &MockBlobs{}, &MockBus{}
	repo.On("FindByID", mock.Anything, id).Return(current, nil)
	repo.On("UpdateProfile", mock.Anything, id, mock.MatchedBy(func(p ProfilePatch) bool {
		return p.Fee != nil && *p.Fee == 0 &&
			p.Name == nil && p.City == nil && p.Profession == nil &&
			p.Bio == nil && p.ProfilePic == nil
	})).Return(updated, nil)
	bus.On("Broadcast", mock.Anything, mock.MatchedBy(profileEvent)).Return()

	svc := newTestService(repo, blobs, bus)
	resp, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{
		Fee:  floatPtr(0),
		City: strPtr("   "),
		Bio:  strPtr(""),
	})

	require.NoError(t, err)
	assert.Equal(t, "Profile updated successfully", resp.Message)
	assert.Equal(t, updated, resp.User)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestUpdateProfile_EmptyPatchSkipsWrite(t *testing.T) {
	id := bson.NewObjectID()
	current := &User{ID: id, Name: "alice"}

	repo, blobs, bus := &MockRepo{}, &MockBlobs{}, &MockBus{}
	repo.On("FindByID", mock.Anything, id).Return(current, nil)
	bus.On("Broadcast", mock.Anything, mock.MatchedBy(profileEvent)).Return()

	svc := newTestService(repo, blobs, bus)
	resp, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{Name: strPtr("alice")})

	require.NoError(t, err)
	assert.Same(t, current, resp.User)
	repo.AssertNotCalled(t, "NameTakenByOther", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  UpdateProfileRequest
		err  error
	}{
		{"name with space", UpdateProfileRequest{Name: strPtr("al ice")}, ErrInvalidName},
		{"name with symbol", UpdateProfileRequest{Name: strPtr("alice!")}, ErrInvalidName},
		{"negative fee", UpdateProfileRequest{Fee: floatPtr(-1)}, ErrInvalidFee},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := bson.NewObjectID()
			repo := &MockRepo{}
			svc := newTestService(repo, &MockBlobs{}, &MockBus{})

			_, err := svc.UpdateProfile(context.Background(), id, id, tt.req)

			assert.ErrorIs(t, err, tt.err)
			repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateProfile_NameTaken(t *testing.T) {
	id := bson.NewObjectID()

	t.Run("pre-check", func(t *testing.T) {
		repo := &MockRepo{}
		repo.On("FindByID", mock.Anything, id).Return(&User{ID: id, Name: "alice"}, nil)
		repo.On("NameTakenByOther", mock.Anything, "bob", id).Return(true, nil)

		svc := newTestService(repo, &MockBlobs{}, &MockBus{})
		_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{Name: strPtr("bob")})

		assert.ErrorIs(t, err, ErrNameTaken)
		repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unique index backstop", func(t *testing.T) {
		repo := &MockRepo{}
		repo.On("FindByID", mock.Anything, id).Return(&User{ID: id, Name: "alice"}, nil)
		repo.On("NameTakenByOther", mock.Anything, "bob", id).Return(false, nil)
		repo.On("UpdateProfile", mock.Anything, id, mock.Anything).Return(nil, ErrNameTaken)

		svc := newTestService(repo, &MockBlobs{}, &MockBus{})
		_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{Name: strPtr("bob")})

		assert.ErrorIs(t, err, ErrNameTaken)
	})
}

func TestUpdateProfile_ReplacePictureDeletesOldAsset(t *testing.T) {
	id := bson.NewObjectID()
	oldPic := "https://bucket.s3.amazonaws.com/uploads/old.png"
	newPic := "https://bucket.s3.amazonaws.com/uploads/new.png"

	repo, blobs, bus := &MockRepo{}, &MockBlobs{}, &MockBus{}
	repo.On("FindByID", mock.Anything, id).Return(&User{ID: id, ProfilePic: oldPic}, nil)
	repo.On("UpdateProfile", mock.Anything, id, mock.MatchedBy(func(p ProfilePatch) bool {
		return p.ProfilePic != nil && *p.ProfilePic == newPic
	})).Return(&User{ID: id, ProfilePic: newPic}, nil)
	blobs.On("RemoveByURL", mock.Anything, oldPic).Return(nil)
	bus.On("Broadcast", mock.Anything, mock.Anything).Return()

	svc := newTestService(repo, blobs, bus)
	resp, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{
		ProfilePicURL:    strPtr(newPic),
		RemoveProfilePic: true, // overridden by the new URL
	})
	svc.WaitCleanups()

	require.NoError(t, err)
	assert.Equal(t, newPic, resp.User.ProfilePic)
	blobs.AssertExpectations(t)
}

func TestUpdateProfile_RemovePictureSurvivesDeleteFailure(t *testing.T) {
	id := bson.NewObjectID()
	oldPic := "https://bucket.s3.amazonaws.com/uploads/old.png"

	repo, blobs, bus := &MockRepo{}, &MockBlobs{}, &MockBus{}
	repo.On("FindByID", mock.Anything, id).Return(&User{ID: id, ProfilePic: oldPic}, nil)
	repo.On("UpdateProfile", mock.Anything, id, mock.MatchedBy(func(p ProfilePatch) bool {
		return p.ProfilePic != nil && *p.ProfilePic == ""
	})).Return(&User{ID: id}, nil)
	blobs.On("RemoveByURL", mock.Anything, oldPic).Return(errors.New("s3 down"))
	bus.On("Broadcast", mock.Anything, mock.Anything).Return()

	svc := newTestService(repo, blobs, bus)
	resp, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{RemoveProfilePic: true})
	svc.WaitCleanups()

	require.NoError(t, err)
	assert.Empty(t, resp.User.ProfilePic)
	blobs.AssertExpectations(t)
}

func TestUpdateProfile_SanitizesText(t *testing.T) {
	id := bson.NewObjectID()

	repo, bus := &MockRepo{}, &MockBus{}
	repo.On("FindByID", mock.Anything, id).Return(&User{ID: id}, nil)
	repo.On("UpdateProfile", mock.Anything, id, mock.MatchedBy(func(p ProfilePatch) bool {
		return p.Profession != nil && *p.Profession == "electrician" && p.Bio == nil
	})).Return(&User{ID: id, Profession: "electrician"}, nil)
	bus.On("Broadcast", mock.Anything, mock.Anything).Return()

	svc := newTestService(repo, &MockBlobs{}, bus)
	_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{
		Profession: strPtr("<b>electrician</b>"),
		Bio:        strPtr("<script></script>"),
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_UserMissing(t *testing.T) {
	id := bson.NewObjectID()
	repo := &MockRepo{}
	repo.On("FindByID", mock.Anything, id).Return(nil, ErrUserNotFound)

	svc := newTestService(repo, &MockBlobs{}, &MockBus{})
	_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{City: strPtr("Pune")})

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile_SuggestionCache(t *testing.T) {
	id := bson.NewObjectID()
	seeded := func() *memCache {
		c := newMemCache()
		c.data[suggestCachePrefix+"al"] = []byte(`[{"type":"name","value":"alice"}]`)
		c.data["session:1"] = []byte("x")
		return c
	}
	current := func() *User { return &User{ID: id, Name: "alice", Profession: "plumber"} }

	t.Run("rename drops cached suggestions", func(t *testing.T) {
		repo, bus := &MockRepo{}, &MockBus{}
		repo.On("FindByID", mock.Anything, id).Return(current(), nil)
		repo.On("NameTakenByOther", mock.Anything, "alicia", id).Return(false, nil)
		repo.On("UpdateProfile", mock.Anything, id, mock.Anything).Return(&User{ID: id, Name: "alicia"}, nil)
		bus.On("Broadcast", mock.Anything, mock.MatchedBy(profileEvent)).Return()
		cache := seeded()

		svc := NewService(repo, &MockBlobs{}, cache, bus, silentLogger, testOpts)
		_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{Name: strPtr("alicia")})

		require.NoError(t, err)
		assert.NotContains(t, cache.data, suggestCachePrefix+"al")
		assert.Contains(t, cache.data, "session:1")
	})

	t.Run("new profession drops cached suggestions", func(t *testing.T) {
		repo, bus := &MockRepo{}, &MockBus{}
		repo.On("FindByID", mock.Anything, id).Return(current(), nil)
		repo.On("UpdateProfile", mock.Anything, id, mock.Anything).Return(&User{ID: id, Name: "alice", Profession: "tutor"}, nil)
		bus.On("Broadcast", mock.Anything, mock.MatchedBy(profileEvent)).Return()
		cache := seeded()

		svc := NewService(repo, &MockBlobs{}, cache, bus, silentLogger, testOpts)
		_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{Profession: strPtr("tutor")})

		require.NoError(t, err)
		assert.NotContains(t, cache.data, suggestCachePrefix+"al")
	})

	t.Run("other fields keep the cache", func(t *testing.T) {
		repo, bus := &MockRepo{}, &MockBus{}
		repo.On("FindByID", mock.Anything, id).Return(current(), nil)
		repo.On("UpdateProfile", mock.Anything, id, mock.Anything).Return(&User{ID: id, Name: "alice", City: "Pune"}, nil)
		bus.On("Broadcast", mock.Anything, mock.MatchedBy(profileEvent)).Return()
		cache := seeded()

		svc := NewService(repo, &MockBlobs{}, cache, bus, silentLogger, testOpts)
		_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{
			City:       strPtr("Pune"),
			Profession: strPtr("plumber"),
		})

		require.NoError(t, err)
		assert.Contains(t, cache.data, suggestCachePrefix+"al")
	})

	t.Run("failed update keeps the cache", func(t *testing.T) {
		repo := &MockRepo{}
		repo.On("FindByID", mock.Anything, id).Return(current(), nil)
		repo.On("NameTakenByOther", mock.Anything, "bob", id).Return(true, nil)
		cache := seeded()

		svc := NewService(repo, &MockBlobs{}, cache, &MockBus{}, silentLogger, testOpts)
		_, err := svc.UpdateProfile(context.Background(), id, id, UpdateProfileRequest{Name: strPtr("bob")})

		assert.ErrorIs(t, err, ErrNameTaken)
		assert.Contains(t, cache.data, suggestCachePrefix+"al")
	})
}
