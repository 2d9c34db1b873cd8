package users

import (
	"context"
	"errors"

	"skillmart/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MaxSectionMedia caps images and videos per section.
const MaxSectionMedia = 4

// AddSectionRequest carries a section whose media was uploaded beforehand.
type AddSectionRequest struct {
	Title       string   `json:"title" validate:"required,max=200" example:"Bathroom remodel"`
	Description string   `json:"description" validate:"max=5000" example:"Full retile in two days"`
	Images      []string `json:"images" validate:"max=4,dive,required,max=2048"`
	Videos      []string `json:"videos" validate:"max=4,dive,required,max=2048"`
}

// AddSection appends a new section to the owner's profile.
func (s *Service) AddSection(ctx context.Context, actorID, userID bson.ObjectID, req AddSectionRequest) (*UserResponse, error) {
	if actorID != userID {
		return nil, ErrForbidden
	}

	section := Section{
		ID:          bson.NewObjectID(),
		Title:       sanitize.Clean(req.Title),
		Description: sanitize.Clean(req.Description),
		Images:      nonNil(req.Images),
		Videos:      nonNil(req.Videos),
	}

	user, err := s.repo.AddSection(ctx, userID, section)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.log.Error("failed to add section", "error", err, "user_id", userID.Hex())
		}
		return nil, err
	}

	s.publish(ctx, Event{Type: EventSectionAdded, UserID: userID, ActorID: actorID, SectionID: section.ID.Hex(), Likes: user.Likes})

	return &UserResponse{User: user}, nil
}

// DeleteSection removes a section owned by the actor and schedules deletion of its media.
func (s *Service) DeleteSection(ctx context.Context, actorID, userID, sectionID bson.ObjectID) (*UserResponse, error) {
	if actorID != userID {
		return nil, ErrForbidden
	}

	removed, user, err := s.repo.DeleteSection(ctx, userID, sectionID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrSectionNotFound) {
			s.log.Error("failed to delete section", "error", err, "user_id", userID.Hex(), "section_id", sectionID.Hex())
		}
		return nil, err
	}

	s.removeBlobs(ctx, userID, removed.URLs())
	s.publish(ctx, Event{Type: EventSectionDeleted, UserID: userID, ActorID: actorID, SectionID: sectionID.Hex(), Likes: user.Likes})

	return &UserResponse{User: user}, nil
}

func nonNil(urls []string) []string {
	if urls == nil {
		return []string{}
	}
	return urls
}
