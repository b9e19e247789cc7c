package domain

// CriticalAction is a high-priority, impact-quantified recommendation.
// Seeded from the analysis bundle or created by the user; once persisted,
// the locally-edited copy shadows the bundle.
type CriticalAction struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Impact  string `json:"impact,omitempty"`
	Urgency string `json:"urgency" enum:"high,medium,low"`
	Details string `json:"details,omitempty"`
}

// QuickAction is a checklist-style near-term task.
type QuickAction struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// BundleAction is a pre-id critical action as delivered by the remote
// analytics service.
type BundleAction struct {
	Action  string `json:"action"`
	Impact  string `json:"impact"`
	Urgency string `json:"urgency"`
	Details string `json:"details"`
}

// AnalysisBundle is the remote service's response bundle: narrative, metrics
// and suggested actions. Owned by the remote side; this system only takes a
// one-time seed copy.
type AnalysisBundle struct {
	Analysis struct {
		ExecutiveSummary string         `json:"executive_summary"`
		CriticalActions  []BundleAction `json:"critical_actions"`
	} `json:"analysis"`
	Metrics    map[string]string `json:"metrics"`
	Next30Days []string          `json:"next_30_days"`
}

// SalesMetrics is the affiliate-marketing metrics variant.
type SalesMetrics struct {
	Clicks      int `json:"clicks"`
	Sales       int `json:"sales"`
	Commissions int `json:"commissions"`
	CTR         int `json:"ctr"`
}

// InstagramMetrics is the engagement metrics variant.
type InstagramMetrics struct {
	Reach          string `json:"reach"`
	Interactions   string `json:"interactions"`
	Followers      string `json:"followers"`
	FollowerGrowth string `json:"follower_growth"`
	ReelViews      string `json:"reel_views"`
	ProfileClicks  string `json:"profile_clicks"`
}

// FinancialMetrics is the real-estate NOI metrics variant.
type FinancialMetrics struct {
	CurrentNOI     string `json:"current_noi"`
	NOIOpportunity string `json:"noi_opportunity"`
	PortfolioROI   string `json:"portfolio_roi"`
	VacancyCost    string `json:"vacancy_cost"`
	TurnoverRisk   string `json:"turnover_risk"`
	CapexDue       string `json:"capex_due"`
}

// Plan is an entry in the audit trail of past submission responses.
type Plan struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt" format:"date-time"`
}

// Event is a row in the local audit log.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
