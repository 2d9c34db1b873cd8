package users

import (
	"context"
	"errors"
	"strings"

	"skillmart/internal/utils/crypto"
	"skillmart/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UpdateProfileRequest is a partial profile update. Nil or empty strings leave
// the stored value untouched; Fee may be set to 0 explicitly.
type UpdateProfileRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,max=50" example:"alice"`
	Profession *string  `json:"profession,omitempty" validate:"omitempty,max=100" example:"plumber"`
	Bio        *string  `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Location   *string  `json:"location,omitempty" validate:"omitempty,max=200" example:"Kothrud"`
	City       *string  `json:"city,omitempty" validate:"omitempty,max=100" example:"Pune"`
	Country    *string  `json:"country,omitempty" validate:"omitempty,max=100" example:"India"`
	Timing     *string  `json:"timing,omitempty" validate:"omitempty,max=200" example:"Mon-Fri 9-18"`
	Contact    *string  `json:"contact,omitempty" validate:"omitempty,max=200" example:"+91 98765 43210"`
	Fee        *float64 `json:"fee,omitempty" example:"500"`

	ProfilePicURL    *string `json:"profilePicUrl,omitempty" validate:"omitempty,max=2048"`
	RemoveProfilePic bool    `json:"removeProfilePic,omitempty"`
}

// UpdateProfile merges req into the target's profile. Only the owner may update.
func (s *Service) UpdateProfile(ctx context.Context, actorID, targetID bson.ObjectID, req UpdateProfileRequest) (*UserResponse, error) {
	if actorID != targetID {
		return nil, ErrForbidden
	}

	patch, err := buildPatch(req)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if *patch.Name == current.Name {
			patch.Name = nil
		} else {
			taken, err := s.repo.NameTakenByOther(ctx, *patch.Name, targetID)
			if err != nil {
				s.log.Error("failed to check name uniqueness", "error", err, "user_id", targetID.Hex())
				return nil, err
			}
			if taken {
				return nil, ErrNameTaken
			}
		}
	}

	// a new URL wins over the remove flag
	var stalePic string
	switch {
	case patch.ProfilePic != nil:
		if *patch.ProfilePic != current.ProfilePic {
			stalePic = current.ProfilePic
		}
	case req.RemoveProfilePic:
		empty := ""
		patch.ProfilePic = &empty
		stalePic = current.ProfilePic
	}

	// names and professions feed the suggestion lists
	suggestStale := patch.Name != nil ||
		(patch.Profession != nil && *patch.Profession != current.Profession)

	updated := current
	if !patch.IsEmpty() {
		updated, err = s.repo.UpdateProfile(ctx, targetID, patch)
		if err != nil {
			if !errors.Is(err, ErrNameTaken) && !errors.Is(err, ErrUserNotFound) {
				s.log.Error("failed to update profile", "error", err, "user_id", targetID.Hex())
			}
			return nil, err
		}
	}

	if suggestStale {
		s.dropSuggestions(ctx)
	}
	s.removeBlobs(ctx, targetID, []string{stalePic})
	s.publish(ctx, Event{Type: EventProfileUpdated, UserID: targetID, ActorID: actorID, Likes: updated.Likes})

	return &UserResponse{Message: "Profile updated successfully", User: updated}, nil
}

// buildPatch keeps only the fields that carry a value.
func buildPatch(req UpdateProfileRequest) (ProfilePatch, error) {
	var p ProfilePatch

	if v := present(req.Name); v != nil {
		if !crypto.IsValidUsername(*v) {
			return p, ErrInvalidName
		}
		p.Name = v
	}
	if req.Fee != nil {
		if *req.Fee < 0 {
			return p, ErrInvalidFee
		}
		fee := *req.Fee
		p.Fee = &fee
	}

	p.Profession = cleaned(req.Profession)
	p.Bio = cleaned(req.Bio)
	p.Location = cleaned(req.Location)
	p.City = cleaned(req.City)
	p.Country = cleaned(req.Country)
	p.Timing = cleaned(req.Timing)
	p.Contact = cleaned(req.Contact)
	p.ProfilePic = present(req.ProfilePicURL)

	return p, nil
}

// present returns the trimmed value, or nil when it is absent or blank.
func present(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func cleaned(s *string) *string {
	v := present(s)
	if v == nil {
		return nil
	}
	c := sanitize.Clean(*v)
	if c == "" {
		return nil
	}
	return &c
}
