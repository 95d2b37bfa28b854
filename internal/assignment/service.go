package assignment

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/UCLALibrary/ftva-lab-data/internal/auth"
	"github.com/UCLALibrary/ftva-lab-data/internal/repository"
)

// UnassignTarget is the sentinel target that clears the assignment instead
// of pointing it at a user.
const UnassignTarget = "__unassign__"

// Service applies bulk assignment changes to items.
type Service struct {
	items repository.ItemRepository
	users repository.UserRepository
}

// NewService creates an assignment service.
func NewService(items repository.ItemRepository, users repository.UserRepository) *Service {
	return &Service{items: items, users: users}
}

// Assign points every named item at the target user, or clears the
// assignment when target is UnassignTarget. The acting user comes from the
// context and must have assign permission. All ids must exist; otherwise
// nothing is applied. An empty id set is a no-op.
func (s *Service) Assign(ctx context.Context, ids []int64, target string) error {
	actor, err := auth.RequireAssignPermission(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	var userID *int64
	if target != UnassignTarget {
		parsed, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid assignment target %q", target)
		}
		user, err := s.users.GetByID(ctx, parsed)
		if err != nil {
			return fmt.Errorf("failed to resolve assignment target: %w", err)
		}
		userID = &user.ID
	}

	if err := s.items.AssignUser(ctx, ids, userID, &actor.ID); err != nil {
		return err
	}
	if userID == nil {
		log.Printf("[assign] %s unassigned %d items", actor.Username, len(ids))
	} else {
		log.Printf("[assign] %s assigned %d items to user %d", actor.Username, len(ids), *userID)
	}
	return nil
}
