package service

import (
	"context"
	"errors"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
}

func NewGroupService(groupRepo repository.GroupRepository, userRepo repository.UserRepository) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		userRepo:  userRepo,
	}
}

func (s *GroupService) Create(ctx context.Context, name string, createdBy uuid.UUID) (*domain.Group, error) {
	creator, err := s.userRepo.GetByID(ctx, createdBy)
	if err != nil {
		return nil, err
	}
	if creator.GroupID != nil {
		return nil, domain.ErrAlreadyInGroup
	}

	group := &domain.Group{
		ID:        uuid.New(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}

	creator.GroupID = &group.ID
	creator.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, creator); err != nil {
		return nil, err
	}

	return group, nil
}

func (s *GroupService) Join(ctx context.Context, groupID, userID uuid.UUID) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.GroupID != nil {
		return nil, domain.ErrAlreadyInGroup
	}

	user.GroupID = &group.ID
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return group, nil
}

func (s *GroupService) Get(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrGroupNotFound
	}
	return group, err
}
