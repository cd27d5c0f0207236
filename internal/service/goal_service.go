package service

import (
	"context"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/util"
	"github.com/shopspring/decimal"
)

// GoalStatus classifies goal completion
type GoalStatus string

const (
	GoalStatusAchieved   GoalStatus = "achieved"
	GoalStatusOverdue    GoalStatus = "overdue"
	GoalStatusInProgress GoalStatus = "in_progress"
)

// GoalProgress is the derived completion of one goal
type GoalProgress struct {
	Goal          domain.Goal     `json:"goal"`
	Progress      decimal.Decimal `json:"progress"`
	Remaining     decimal.Decimal `json:"remaining"`
	DaysRemaining int             `json:"daysRemaining"`
	Status        GoalStatus      `json:"status"`
}

// SavingProgress is the derived completion of one saving
type SavingProgress struct {
	Saving    domain.Saving   `json:"saving"`
	Progress  decimal.Decimal `json:"progress"`
	Remaining decimal.Decimal `json:"remaining"`
	Achieved  bool            `json:"achieved"`
}

// GoalService computes goal and saving progress and submits contributions
type GoalService struct {
	ledgers   LedgerProvider
	submitter MutationSubmitter
	now       func() time.Time
}

// NewGoalService creates a new GoalService
func NewGoalService(ledgers LedgerProvider, submitter MutationSubmitter) *GoalService {
	return &GoalService{
		ledgers:   ledgers,
		submitter: submitter,
		now:       time.Now,
	}
}

// GetGoalProgress computes progress for every goal
func (s *GoalService) GetGoalProgress(userID string) ([]GoalProgress, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goals := l.Goals()
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, ComputeGoalProgress(g, now))
	}
	return out, nil
}

// GetSavingProgress computes progress for every saving
func (s *GoalService) GetSavingProgress(userID string) ([]SavingProgress, error) {
	l, err := s.ledgers.Ledger(userID)
	if err != nil {
		return nil, err
	}

	savings := l.Savings()
	out := make([]SavingProgress, 0, len(savings))
	for _, sv := range savings {
		out = append(out, ComputeSavingProgress(sv))
	}
	return out, nil
}

// AddToGoal submits current + delta as an update of the goal
func (s *GoalService) AddToGoal(ctx context.Context, userID, goalID string, delta decimal.Decimal) (*ledger.Intent, error) {
	if !delta.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	l, err := SyncedLedger(ctx, s.ledgers, userID)
	if err != nil {
		return nil, err
	}
	goal, ok := l.Goal(goalID)
	if !ok {
		return nil, domain.ErrGoalNotFound
	}

	goal.CurrentAmount = goal.CurrentAmount.Add(delta)
	return s.submitter.Submit(ctx, userID, domain.Mutation{
		Kind:       domain.MutationUpdate,
		Collection: domain.CollectionGoals,
		ID:         goalID,
		Entity:     goal,
	})
}

// AddToSaving submits current + delta as an update of the saving
func (s *GoalService) AddToSaving(ctx context.Context, userID, savingID string, delta decimal.Decimal) (*ledger.Intent, error) {
	if !delta.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	l, err := SyncedLedger(ctx, s.ledgers, userID)
	if err != nil {
		return nil, err
	}
	saving, ok := l.Saving(savingID)
	if !ok {
		return nil, domain.ErrSavingNotFound
	}

	saving.CurrentAmount = saving.CurrentAmount.Add(delta)
	return s.submitter.Submit(ctx, userID, domain.Mutation{
		Kind:       domain.MutationUpdate,
		Collection: domain.CollectionSavings,
		ID:         savingID,
		Entity:     saving,
	})
}

// ComputeGoalProgress derives progress, remaining, days left and status as of now
func ComputeGoalProgress(g domain.Goal, now time.Time) GoalProgress {
	progress := Progress(g.CurrentAmount, g.TargetAmount)

	status := GoalStatusInProgress
	switch {
	case reached(g.CurrentAmount, g.TargetAmount):
		status = GoalStatusAchieved
	case g.Deadline.Before(util.StartOfDay(now)):
		status = GoalStatusOverdue
	}

	return GoalProgress{
		Goal:          g,
		Progress:      progress,
		Remaining:     nonNegative(g.TargetAmount.Sub(g.CurrentAmount)),
		DaysRemaining: util.DaysUntil(g.Deadline, now),
		Status:        status,
	}
}

// ComputeSavingProgress derives progress and remaining of a saving
func ComputeSavingProgress(sv domain.Saving) SavingProgress {
	progress := Progress(sv.CurrentAmount, sv.TargetAmount)
	return SavingProgress{
		Saving:    sv,
		Progress:  progress,
		Remaining: nonNegative(sv.TargetAmount.Sub(sv.CurrentAmount)),
		Achieved:  reached(sv.CurrentAmount, sv.TargetAmount),
	}
}

// Progress is clamp(current/target × 100, 0, 100) at 2 places; 0 when target ≤ 0
func Progress(current, target decimal.Decimal) decimal.Decimal {
	return clampPercent(percentOf(current, target)).Round(2)
}

// reached reports whether current covers a positive target. Progress may
// round up to 100 before this holds.
func reached(current, target decimal.Decimal) bool {
	return target.IsPositive() && current.GreaterThanOrEqual(target)
}
