package server

import (
	"ceoboard/internal/domain"
)

type LoginRequest struct {
	Code string `json:"code" example:"CEO2024"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserCode string `json:"user_code"`
}

type SessionResponse struct {
	LoggedIn            bool   `json:"logged_in"`
	AccessGranted       bool   `json:"access_granted"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	HasVisitedBefore    bool   `json:"has_visited_before"`
	UserCode            string `json:"user_code,omitempty"`
}

type BoardResponse struct {
	CriticalActions []domain.CriticalAction `json:"critical_actions"`
	QuickActions    []domain.QuickAction    `json:"quick_actions"`
}

type AddActionRequest struct {
	Action  string `json:"action"`
	Impact  string `json:"impact,omitempty"`
	Urgency string `json:"urgency,omitempty" enum:"high,medium,low"`
	Details string `json:"details,omitempty"`
}

type UpdateActionRequest struct {
	Action  *string `json:"action,omitempty"`
	Impact  *string `json:"impact,omitempty"`
	Urgency *string `json:"urgency,omitempty"`
	Details *string `json:"details,omitempty"`
}

type MetricsResponse struct {
	Variant string `json:"variant"`
	Values  any    `json:"values"`
}

type SaveMetricsRequest struct {
	Values map[string]string `json:"values"`
}

type AnalysisResponse struct {
	Bundle   *domain.AnalysisBundle `json:"bundle"`
	Fallback bool                   `json:"fallback"`
}

type SubmitRequest struct {
	Action string `json:"action" enum:"navigate_to_planes,create_plan,generate_executive_summary"`
}

type SubmitResponse struct {
	Status   int          `json:"status"`
	Body     string       `json:"body"`
	Plan     *domain.Plan `json:"plan,omitempty"`
	UserCode string       `json:"user_code"`
}

type ConfigResponse struct {
	UserCode        string `json:"user_code"`
	MetricsVariant  string `json:"metrics_variant"`
	WebhookURL      string `json:"webhook_url"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	Fallback        bool   `json:"fallback"`
	RefreshInterval int    `json:"refresh_interval_seconds"`
}

type UpdateConfigRequest struct {
	UserCode        *string `json:"user_code,omitempty"`
	MetricsVariant  *string `json:"metrics_variant,omitempty"`
	WebhookURL      *string `json:"webhook_url,omitempty"`
	TimeoutSeconds  *int    `json:"timeout_seconds,omitempty"`
	Fallback        *bool   `json:"fallback,omitempty"`
	RefreshInterval *int    `json:"refresh_interval_seconds,omitempty"`
}
