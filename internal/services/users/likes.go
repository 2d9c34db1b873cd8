package users

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ToggleLike likes target on behalf of actor, or unlikes it when already liked.
func (s *Service) ToggleLike(ctx context.Context, actorID, targetID bson.ObjectID) (*UserResponse, error) {
	if actorID == targetID {
		return nil, ErrSelfLike
	}

	target, liked, err := s.repo.ToggleLike(ctx, actorID, targetID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.log.Error("failed to toggle like", "error", err, "user_id", actorID.Hex(), "target_id", targetID.Hex())
		}
		return nil, err
	}

	evType := EventUnliked
	if liked {
		evType = EventLiked
	}
	s.publish(ctx, Event{Type: evType, UserID: targetID, ActorID: actorID, Likes: target.Likes})

	return &UserResponse{User: target}, nil
}

// ListLiked returns the users the actor has liked.
func (s *Service) ListLiked(ctx context.Context, actorID bson.ObjectID) ([]LikedUser, error) {
	liked, err := s.repo.ListLiked(ctx, actorID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.log.Error("failed to list liked users", "error", err, "user_id", actorID.Hex())
		}
		return nil, err
	}
	if liked == nil {
		liked = []LikedUser{}
	}
	return liked, nil
}
