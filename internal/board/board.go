// Package board owns the two ordered action collections behind the
// dashboard: critical actions (top opportunities) and quick actions (next 30
// days). Collections are seeded once from a fetched analysis bundle and from
// then on the locally-edited, persisted copies are the source of truth.
package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"ceoboard/internal/domain"
	"ceoboard/internal/events"
	"ceoboard/internal/store"
)

const (
	KindCritical = "critical"
	KindQuick    = "quick"
)

var ErrNotFound = errors.New("action not found")

// ValidationError reports a rejected mutation. The dashboard used to drop
// these silently; callers now get to decide how to surface them.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type Manager struct {
	Store  store.Store
	Events *events.Writer
	Now    func() time.Time
}

func New(s store.Store, ev *events.Writer) *Manager {
	return &Manager{Store: s, Events: ev, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Load reads both collections, seeding either one from the bundle when its
// key is absent. Seeding assigns ids critical-0..N-1 / quick-0..N-1 in
// bundle order and happens at most once; later loads always return the
// persisted, possibly user-edited, copies.
func (m *Manager) Load(ctx context.Context, bundle *domain.AnalysisBundle) ([]domain.CriticalAction, []domain.QuickAction, error) {
	critical, err := m.loadCritical(ctx, bundle)
	if err != nil {
		return nil, nil, err
	}
	quick, err := m.loadQuick(ctx, bundle)
	if err != nil {
		return nil, nil, err
	}
	return critical, quick, nil
}

func (m *Manager) loadCritical(ctx context.Context, bundle *domain.AnalysisBundle) ([]domain.CriticalAction, error) {
	var actions []domain.CriticalAction
	err := store.GetJSON(ctx, m.Store, store.KeyCriticalActions, &actions)
	if err == nil {
		return actions, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if bundle == nil {
		return []domain.CriticalAction{}, nil
	}
	actions = make([]domain.CriticalAction, 0, len(bundle.Analysis.CriticalActions))
	for i, a := range bundle.Analysis.CriticalActions {
		actions = append(actions, domain.CriticalAction{
			ID:      fmt.Sprintf("%s-%d", KindCritical, i),
			Action:  a.Action,
			Impact:  a.Impact,
			Urgency: a.Urgency,
			Details: a.Details,
		})
	}
	if err := store.SetJSON(ctx, m.Store, store.KeyCriticalActions, actions); err != nil {
		return nil, err
	}
	if err := m.setSeq(ctx, store.KeyCriticalSeq, len(actions)); err != nil {
		return nil, err
	}
	m.append(ctx, "board.seeded", KindCritical, "", events.EventPayload{"count": len(actions)})
	return actions, nil
}

func (m *Manager) loadQuick(ctx context.Context, bundle *domain.AnalysisBundle) ([]domain.QuickAction, error) {
	var actions []domain.QuickAction
	err := store.GetJSON(ctx, m.Store, store.KeyQuickActions, &actions)
	if err == nil {
		return actions, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if bundle == nil {
		return []domain.QuickAction{}, nil
	}
	actions = make([]domain.QuickAction, 0, len(bundle.Next30Days))
	for i, a := range bundle.Next30Days {
		actions = append(actions, domain.QuickAction{
			ID:     fmt.Sprintf("%s-%d", KindQuick, i),
			Action: a,
		})
	}
	if err := store.SetJSON(ctx, m.Store, store.KeyQuickActions, actions); err != nil {
		return nil, err
	}
	if err := m.setSeq(ctx, store.KeyQuickSeq, len(actions)); err != nil {
		return nil, err
	}
	m.append(ctx, "board.seeded", KindQuick, "", events.EventPayload{"count": len(actions)})
	return actions, nil
}

// AddCritical validates, assigns the next sequence id, appends, and rewrites
// the whole collection.
func (m *Manager) AddCritical(ctx context.Context, actorID string, fields domain.CriticalAction) (domain.CriticalAction, error) {
	if strings.TrimSpace(fields.Action) == "" {
		return domain.CriticalAction{}, ValidationError{Field: "action", Reason: "must not be empty"}
	}
	actions, err := m.criticalActions(ctx)
	if err != nil {
		return domain.CriticalAction{}, err
	}
	id, err := m.nextID(ctx, KindCritical, store.KeyCriticalSeq)
	if err != nil {
		return domain.CriticalAction{}, err
	}
	fields.ID = id
	if fields.Urgency == "" {
		fields.Urgency = "medium"
	}
	actions = append(actions, fields)
	if err := store.SetJSON(ctx, m.Store, store.KeyCriticalActions, actions); err != nil {
		return domain.CriticalAction{}, err
	}
	m.append(ctx, "action.created", KindCritical, id, events.EventPayload{"action": fields.Action, "actor": actorID})
	return fields, nil
}

// AddQuick appends a quick action with the next sequence id.
func (m *Manager) AddQuick(ctx context.Context, actorID, text string) (domain.QuickAction, error) {
	if strings.TrimSpace(text) == "" {
		return domain.QuickAction{}, ValidationError{Field: "action", Reason: "must not be empty"}
	}
	actions, err := m.quickActions(ctx)
	if err != nil {
		return domain.QuickAction{}, err
	}
	id, err := m.nextID(ctx, KindQuick, store.KeyQuickSeq)
	if err != nil {
		return domain.QuickAction{}, err
	}
	qa := domain.QuickAction{ID: id, Action: text}
	actions = append(actions, qa)
	if err := store.SetJSON(ctx, m.Store, store.KeyQuickActions, actions); err != nil {
		return domain.QuickAction{}, err
	}
	m.append(ctx, "action.created", KindQuick, id, events.EventPayload{"action": text, "actor": actorID})
	return qa, nil
}

// CriticalPatch carries the fields of a partial update; nil means unchanged.
type CriticalPatch struct {
	Action  *string
	Impact  *string
	Urgency *string
	Details *string
}

// UpdateCritical merges the patch into the matching record and rewrites the
// collection. Unknown ids are reported, not swallowed.
func (m *Manager) UpdateCritical(ctx context.Context, actorID, id string, patch CriticalPatch) (domain.CriticalAction, error) {
	actions, err := m.criticalActions(ctx)
	if err != nil {
		return domain.CriticalAction{}, err
	}
	for i := range actions {
		if actions[i].ID != id {
			continue
		}
		if patch.Action != nil {
			actions[i].Action = *patch.Action
		}
		if patch.Impact != nil {
			actions[i].Impact = *patch.Impact
		}
		if patch.Urgency != nil {
			actions[i].Urgency = *patch.Urgency
		}
		if patch.Details != nil {
			actions[i].Details = *patch.Details
		}
		if err := store.SetJSON(ctx, m.Store, store.KeyCriticalActions, actions); err != nil {
			return domain.CriticalAction{}, err
		}
		m.append(ctx, "action.updated", KindCritical, id, events.EventPayload{"actor": actorID})
		return actions[i], nil
	}
	return domain.CriticalAction{}, fmt.Errorf("%s %s: %w", KindCritical, id, ErrNotFound)
}

// UpdateQuick replaces the text of the matching quick action.
func (m *Manager) UpdateQuick(ctx context.Context, actorID, id, text string) (domain.QuickAction, error) {
	actions, err := m.quickActions(ctx)
	if err != nil {
		return domain.QuickAction{}, err
	}
	for i := range actions {
		if actions[i].ID != id {
			continue
		}
		actions[i].Action = text
		if err := store.SetJSON(ctx, m.Store, store.KeyQuickActions, actions); err != nil {
			return domain.QuickAction{}, err
		}
		m.append(ctx, "action.updated", KindQuick, id, events.EventPayload{"actor": actorID})
		return actions[i], nil
	}
	return domain.QuickAction{}, fmt.Errorf("%s %s: %w", KindQuick, id, ErrNotFound)
}

// RemoveCritical filters the record out by id, preserving the relative order
// of the rest.
func (m *Manager) RemoveCritical(ctx context.Context, actorID, id string) error {
	actions, err := m.criticalActions(ctx)
	if err != nil {
		return err
	}
	kept := actions[:0]
	found := false
	for _, a := range actions {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("%s %s: %w", KindCritical, id, ErrNotFound)
	}
	if err := store.SetJSON(ctx, m.Store, store.KeyCriticalActions, kept); err != nil {
		return err
	}
	m.append(ctx, "action.removed", KindCritical, id, events.EventPayload{"actor": actorID})
	return nil
}

// RemoveQuick filters the record out by id.
func (m *Manager) RemoveQuick(ctx context.Context, actorID, id string) error {
	actions, err := m.quickActions(ctx)
	if err != nil {
		return err
	}
	kept := actions[:0]
	found := false
	for _, a := range actions {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("%s %s: %w", KindQuick, id, ErrNotFound)
	}
	if err := store.SetJSON(ctx, m.Store, store.KeyQuickActions, kept); err != nil {
		return err
	}
	m.append(ctx, "action.removed", KindQuick, id, events.EventPayload{"actor": actorID})
	return nil
}

func (m *Manager) criticalActions(ctx context.Context) ([]domain.CriticalAction, error) {
	var actions []domain.CriticalAction
	err := store.GetJSON(ctx, m.Store, store.KeyCriticalActions, &actions)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.CriticalAction{}, nil
	}
	return actions, err
}

func (m *Manager) quickActions(ctx context.Context) ([]domain.QuickAction, error) {
	var actions []domain.QuickAction
	err := store.GetJSON(ctx, m.Store, store.KeyQuickActions, &actions)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.QuickAction{}, nil
	}
	return actions, err
}

// nextID allocates from the persisted per-kind sequence. Seeded and
// user-created records share the one counter, so re-seeding can never
// collide with a user id.
func (m *Manager) nextID(ctx context.Context, kind, seqKey string) (string, error) {
	n := 0
	raw, err := m.Store.Get(ctx, seqKey)
	if err == nil {
		n, err = strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("corrupt sequence %s: %w", seqKey, err)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if err := m.setSeq(ctx, seqKey, n+1); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", kind, n), nil
}

func (m *Manager) setSeq(ctx context.Context, seqKey string, n int) error {
	return m.Store.Set(ctx, seqKey, strconv.Itoa(n))
}

// append records an audit event; auditing is best-effort, the mutation has
// already persisted.
func (m *Manager) append(ctx context.Context, evtType, kind, id string, payload events.EventPayload) {
	actor := "local-user"
	if a, ok := payload["actor"].(string); ok && a != "" {
		actor = a
		delete(payload, "actor")
	}
	if err := m.Events.Append(ctx, evtType, "board."+kind, id, actor, payload); err != nil {
		log.Printf("board: append event %s failed: %v", evtType, err)
	}
}
