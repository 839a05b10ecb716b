package service

import (
	"context"

	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repository"
)

// ProfileService is the directed user-to-user follow graph.
type ProfileService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewProfileService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo, followRepo: followRepo}
}

func (s *ProfileService) GetProfile(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

// IsFollowing is false when either side is absent.
func (s *ProfileService) IsFollowing(ctx context.Context, follower, target *models.User) (bool, error) {
	if follower == nil || target == nil {
		return false, nil
	}
	return s.followRepo.Exists(ctx, follower.ID, target.ID)
}

// Follow makes actor follow username and returns the target. Following
// yourself is rejected; following twice is a no-op.
func (s *ProfileService) Follow(ctx context.Context, actor *models.User, username string) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if actor.ID == target.ID {
		return nil, models.NewInvalidOperationError("You cannot follow yourself")
	}
	if err := s.followRepo.Add(ctx, actor.ID, target.ID); err != nil {
		return nil, err
	}
	observability.AssociationEvents.WithLabelValues("follow", "add").Inc()
	return target, nil
}

// Unfollow removes the relation if present and returns the target.
func (s *ProfileService) Unfollow(ctx context.Context, actor *models.User, username string) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.followRepo.Remove(ctx, actor.ID, target.ID); err != nil {
		return nil, err
	}
	observability.AssociationEvents.WithLabelValues("follow", "remove").Inc()
	return target, nil
}

func (s *ProfileService) FollowersCount(ctx context.Context, user *models.User) (int64, error) {
	return s.followRepo.CountFollowers(ctx, user.ID)
}

func (s *ProfileService) FollowingCount(ctx context.Context, user *models.User) (int64, error) {
	return s.followRepo.CountFollowing(ctx, user.ID)
}
