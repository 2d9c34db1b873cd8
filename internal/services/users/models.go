package users

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is a marketplace member: credentials, public profile, work sections and likes.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"_id" example:"683cdb8aa96ad71e8e075bd1"`
	Name         string        `bson:"name" json:"name" example:"alice"`
	Email        string        `bson:"email" json:"email" example:"alice@example.com"`
	PasswordHash string        `bson:"password,omitempty" json:"-"`

	Profession string  `bson:"profession" json:"profession" example:"plumber"`
	Bio        string  `bson:"bio" json:"bio"`
	Location   string  `bson:"location" json:"location" example:"Kothrud"`
	City       string  `bson:"city" json:"city" example:"Pune"`
	Country    string  `bson:"country" json:"country" example:"India"`
	Timing     string  `bson:"timing" json:"timing" example:"Mon-Fri 9-18"`
	Fee        float64 `bson:"fee" json:"fee" example:"500"`
	Contact    string  `bson:"contact" json:"contact" example:"+91 98765 43210"`
	ProfilePic string  `bson:"profilePic" json:"profilePic"`

	// present only between an OTP request and its consumption or expiry
	ResetPasswordOTP    string     `bson:"resetPasswordOTP,omitempty" json:"-"`
	ResetPasswordExpire *time.Time `bson:"resetPasswordExpire,omitempty" json:"-"`

	Sections   []Section       `bson:"sections" json:"sections"`
	Likes      int             `bson:"likes" json:"likes" example:"3"`
	LikedUsers []bson.ObjectID `bson:"likedUsers" json:"likedUsers"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt" example:"2025-06-01T23:00:26.005Z"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt" example:"2025-06-01T23:00:26.005Z"`
}

// Section is a titled block of work samples on a profile.
type Section struct {
	ID          bson.ObjectID `bson:"_id" json:"_id" example:"683cdb8aa96ad71e8e075bd2"`
	Title       string        `bson:"title" json:"title" example:"Bathroom remodel"`
	Description string        `bson:"description" json:"description"`
	Images      []string      `bson:"images" json:"images"`
	Videos      []string      `bson:"videos" json:"videos"`
}

// URLs returns every media URL referenced by the section.
func (s Section) URLs() []string {
	urls := make([]string, 0, len(s.Images)+len(s.Videos))
	urls = append(urls, s.Images...)
	return append(urls, s.Videos...)
}

// LikedUser is the hydrated view of an entry in likedUsers.
type LikedUser struct {
	ID         bson.ObjectID `bson:"_id" json:"_id"`
	Name       string        `bson:"name" json:"name"`
	ProfilePic string        `bson:"profilePic" json:"profilePic"`
	Profession string        `bson:"profession" json:"profession"`
}

// ProfilePatch is the storage-level partial update. Nil fields are left untouched.
type ProfilePatch struct {
	Name       *string
	Profession *string
	Bio        *string
	Location   *string
	City       *string
	Country    *string
	Timing     *string
	Contact    *string
	Fee        *float64
	ProfilePic *string
}

// IsEmpty reports whether the patch would change nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p == ProfilePatch{}
}

// Location filter values accepted by search.
const (
	LocationSameCity         = "same-city"
	LocationSameCountry      = "same-country"
	LocationDifferentCountry = "different-country"
)

// Sort directions accepted by search.
const (
	LikesHighest = "highest"
	LikesLowest  = "lowest"
	AgeNewest    = "new"
	AgeOldest    = "old"
)

// SearchQuery is the storage-level search predicate. Term is already trimmed and non-empty.
type SearchQuery struct {
	Term           string
	MinFee         *float64
	MaxFee         *float64
	City           string // non-empty: same-city
	Country        string // non-empty: same-country, or different-country when ExcludeCountry
	ExcludeCountry bool
	LikesSort      string
	AgeSort        string
	Limit          int
}

// Suggestion is a typeahead entry.
type Suggestion struct {
	Type  string `json:"type" example:"profession"`
	Value string `json:"value" example:"plumber"`
}

// Suggestion types.
const (
	SuggestionProfession = "profession"
	SuggestionName       = "name"
)
