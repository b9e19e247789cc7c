package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"ceoboard/internal/config"
	"ceoboard/internal/domain"
	"ceoboard/internal/events"
	"ceoboard/internal/store"
)

// MetricsKey maps a configured variant to its storage key.
func MetricsKey(variant string) (string, error) {
	switch variant {
	case config.VariantSales:
		return store.KeySalesMetrics, nil
	case config.VariantInstagram:
		return store.KeyInstagramMetrics, nil
	case config.VariantFinancial:
		return store.KeyFinancialMetrics, nil
	default:
		return "", fmt.Errorf("unknown metrics variant %q", variant)
	}
}

// Metrics returns the active variant's record, or its zero value when none
// has been saved yet.
func (m *Manager) Metrics(ctx context.Context, variant string) (any, error) {
	key, err := MetricsKey(variant)
	if err != nil {
		return nil, err
	}
	var out any
	switch variant {
	case config.VariantSales:
		out = &domain.SalesMetrics{}
	case config.VariantInstagram:
		out = &domain.InstagramMetrics{}
	case config.VariantFinancial:
		out = &domain.FinancialMetrics{}
	}
	err = store.GetJSON(ctx, m.Store, key, out)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return out, nil
}

// SaveMetrics stores the variant's record wholesale from form values.
// Numeric fields coerce best-effort, defaulting to 0; there is no further
// validation.
func (m *Manager) SaveMetrics(ctx context.Context, actorID, variant string, values map[string]string) (any, error) {
	key, err := MetricsKey(variant)
	if err != nil {
		return nil, err
	}
	var record any
	switch variant {
	case config.VariantSales:
		record = &domain.SalesMetrics{
			Clicks:      coerceInt(values["clicks"]),
			Sales:       coerceInt(values["sales"]),
			Commissions: coerceInt(values["commissions"]),
			CTR:         coerceInt(values["ctr"]),
		}
	case config.VariantInstagram:
		record = &domain.InstagramMetrics{
			Reach:          values["reach"],
			Interactions:   values["interactions"],
			Followers:      values["followers"],
			FollowerGrowth: values["follower_growth"],
			ReelViews:      values["reel_views"],
			ProfileClicks:  values["profile_clicks"],
		}
	case config.VariantFinancial:
		record = &domain.FinancialMetrics{
			CurrentNOI:     values["current_noi"],
			NOIOpportunity: values["noi_opportunity"],
			PortfolioROI:   values["portfolio_roi"],
			VacancyCost:    values["vacancy_cost"],
			TurnoverRisk:   values["turnover_risk"],
			CapexDue:       values["capex_due"],
		}
	}
	if err := store.SetJSON(ctx, m.Store, key, record); err != nil {
		return nil, err
	}
	m.append(ctx, "metrics.saved", "metrics", variant, events.EventPayload{"actor": actorID})
	return record, nil
}

func coerceInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
