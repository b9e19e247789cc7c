package remote

import "ceoboard/internal/domain"

// FallbackBundle is the demo analysis served when the webhook is down.
// The dashboard stays fully usable on it.
func FallbackBundle() *domain.AnalysisBundle {
	b := &domain.AnalysisBundle{
		Metrics: map[string]string{
			"reach":           "50K",
			"interactions":    "5.2K",
			"followers":       "25K",
			"follower_growth": "+150",
			"reel_views":      "120K",
			"profile_clicks":  "850",
		},
		Next30Days: []string{
			"Enviar avisos aumento renta Oak Street",
			"Reducir precio Downtown Loft 3B",
			"Llamar inquilinos para renovaciones",
			"Programar mantenimiento HVAC Maple Heights",
		},
	}
	b.Analysis.ExecutiveSummary = "Tu portfolio tiene 3 oportunidades inmediatas que pueden generar $156K adicionales este año."
	b.Analysis.CriticalActions = []domain.BundleAction{
		{
			Action:  "Aumentar rentas en Oak Street Apartments",
			Impact:  "+$28K anuales",
			Urgency: "high",
			Details: "14 unidades están $200 bajo mercado. Enviar avisos de 60 días esta semana.",
		},
		{
			Action:  "Reducir precio Downtown Loft 3B",
			Impact:  "+$18K anuales",
			Urgency: "medium",
			Details: "Unidad vacante 90 días. Reducir $150/mes para ocupar rápido.",
		},
		{
			Action:  "Refinanciar Maple Heights Complex",
			Impact:  "+$110K anuales",
			Urgency: "high",
			Details: "Tasas bajaron 1.2%. Refinanciar ahora ahorra $9.2K/mes.",
		},
	}
	return b
}
