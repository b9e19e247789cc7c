package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ceoboard/internal/domain"
	"ceoboard/internal/events"
	"ceoboard/internal/store"
)

// Plans returns the audit trail of past submission responses, oldest first.
func (m *Manager) Plans(ctx context.Context) ([]domain.Plan, error) {
	var plans []domain.Plan
	err := store.GetJSON(ctx, m.Store, store.KeyPlans, &plans)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.Plan{}, nil
	}
	return plans, err
}

// AppendPlan records a create_plan response. An empty title falls back to
// "Plan N" like the dashboard always did.
func (m *Manager) AppendPlan(ctx context.Context, actorID, title, content string) (domain.Plan, error) {
	plans, err := m.Plans(ctx)
	if err != nil {
		return domain.Plan{}, err
	}
	if title == "" {
		title = fmt.Sprintf("Plan %d", len(plans)+1)
	}
	plan := domain.Plan{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: m.now().UTC().Format(time.RFC3339),
	}
	plans = append(plans, plan)
	if err := store.SetJSON(ctx, m.Store, store.KeyPlans, plans); err != nil {
		return domain.Plan{}, err
	}
	m.append(ctx, "plan.created", "plan", plan.ID, events.EventPayload{"title": plan.Title, "actor": actorID})
	return plan, nil
}
