package users

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository defines the user store operations the service relies on.
// Reads exclude the password hash and OTP state.
type Repository interface {
	FindByID(ctx context.Context, id bson.ObjectID) (*User, error)
	NameTakenByOther(ctx context.Context, name string, exclude bson.ObjectID) (bool, error)
	UpdateProfile(ctx context.Context, id bson.ObjectID, patch ProfilePatch) (*User, error)

	AddSection(ctx context.Context, userID bson.ObjectID, section Section) (*User, error)
	// DeleteSection pulls the section and returns it alongside the updated user.
	DeleteSection(ctx context.Context, userID, sectionID bson.ObjectID) (*Section, *User, error)

	// ToggleLike flips target membership in actor's likedUsers and adjusts the
	// target's counter. liked reports the new state.
	ToggleLike(ctx context.Context, actorID, targetID bson.ObjectID) (target *User, liked bool, err error)
	ListLiked(ctx context.Context, actorID bson.ObjectID) ([]LikedUser, error)

	Search(ctx context.Context, q SearchQuery) ([]*User, error)
	Suggest(ctx context.Context, term string, limit int) ([]Suggestion, error)
}

// BlobRemover deletes stored media by the URL saved on a profile.
type BlobRemover interface {
	RemoveByURL(ctx context.Context, url string) error
}

// SuggestCache is a byte cache for suggestion results. Misses and outages
// both come back as (nil, nil).
type SuggestCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Bus receives profile activity for live subscribers.
type Bus interface {
	Broadcast(ctx context.Context, ev Event)
}

// Event types published on the Bus.
const (
	EventLiked          = "liked"
	EventUnliked        = "unliked"
	EventProfileUpdated = "profile_updated"
	EventSectionAdded   = "section_added"
	EventSectionDeleted = "section_deleted"
)

// Event is a profile activity notification addressed to one user.
type Event struct {
	Type      string        `json:"type" example:"liked"`
	UserID    bson.ObjectID `json:"-"`
	ActorID   bson.ObjectID `json:"actorId"`
	SectionID string        `json:"sectionId,omitempty"`
	Likes     int           `json:"likes"`
	At        time.Time     `json:"at"`
}
