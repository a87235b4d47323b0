package service

import (
	"fmt"
	"strings"
	"time"

	"village/internal/models"
	"village/internal/repository"
	"village/internal/validation"
)

// GoalInput holds the editable fields of a goal
type GoalInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Progress    int        `json:"progress"`
}

func (in *GoalInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.ValidateRequired("title", in.Title, 200); err != nil {
		return err
	}
	return validation.ValidateIntRange("progress", in.Progress, 0, 100)
}

// GoalService manages a child's goals
type GoalService struct {
	goalRepo *repository.GoalRepository
	families *FamilyService
	awards   *AchievementService
	clock    *Clock
}

// NewGoalService creates a new goal service
func NewGoalService(goalRepo *repository.GoalRepository, families *FamilyService, awards *AchievementService, clock *Clock) *GoalService {
	return &GoalService{
		goalRepo: goalRepo,
		families: families,
		awards:   awards,
		clock:    clock,
	}
}

// Create adds a goal for a child
func (s *GoalService) Create(userID, childID int64, in GoalInput) (*models.Goal, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	goal, err := s.goalRepo.Create(&models.Goal{
		ChildID:     childID,
		Title:       in.Title,
		Description: in.Description,
		TargetDate:  in.TargetDate,
		Progress:    in.Progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) goalForUser(userID, goalID int64) (*models.Goal, error) {
	goal, err := s.goalRepo.GetByID(goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	if goal == nil {
		return nil, ErrGoalNotFound
	}
	if _, err := s.families.ChildForUser(userID, goal.ChildID); err != nil {
		return nil, err
	}
	return goal, nil
}

// List returns a child's goals
func (s *GoalService) List(userID, childID int64) ([]models.Goal, error) {
	if _, err := s.families.ChildForUser(userID, childID); err != nil {
		return nil, err
	}
	goals, err := s.goalRepo.List(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// Update changes a goal. Reaching 100% progress completes it; dropping
// below reopens it.
func (s *GoalService) Update(userID, goalID int64, in GoalInput) (*models.Goal, error) {
	goal, err := s.goalForUser(userID, goalID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	wasCompleted := goal.IsCompleted()
	goal.Title = in.Title
	goal.Description = in.Description
	goal.TargetDate = in.TargetDate
	goal.Progress = in.Progress
	switch {
	case goal.Progress >= 100 && !wasCompleted:
		now := s.clock.Now().UTC()
		goal.CompletedAt = &now
	case goal.Progress < 100:
		goal.CompletedAt = nil
	}
	if err := s.goalRepo.Update(goal); err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	if goal.IsCompleted() && !wasCompleted {
		s.awards.afterChange(goal.ChildID)
	}
	return goal, nil
}

// Complete marks a goal as done
func (s *GoalService) Complete(userID, goalID int64) (*models.Goal, error) {
	goal, err := s.goalForUser(userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.IsCompleted() {
		return goal, nil
	}
	now := s.clock.Now().UTC()
	goal.Progress = 100
	goal.CompletedAt = &now
	if err := s.goalRepo.Update(goal); err != nil {
		return nil, fmt.Errorf("failed to complete goal: %w", err)
	}
	s.awards.afterChange(goal.ChildID)
	return goal, nil
}

// Delete removes a goal
func (s *GoalService) Delete(userID, goalID int64) error {
	if _, err := s.goalForUser(userID, goalID); err != nil {
		return err
	}
	if err := s.goalRepo.Delete(goalID); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
