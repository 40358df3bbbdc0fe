package core

import "fmt"

// Band is the three-way traffic-light classification of an indicator.
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandRed    Band = "red"
)

// Share of average expenses assumed to be fixed debt obligations when
// computing the commitment ratio. A deliberate heuristic, not derived
// from transaction categorization.
const debtShareOfExpenses = 0.30

// Target cushion, in months of average expenses, used for the top-up
// recommendation and the green band threshold.
const cushionTargetMonths = 6

// Indicator pairs a normalized ratio with its classification band.
type Indicator struct {
	Value float64 `json:"value"`
	Band  Band    `json:"band"`
}

// HealthIndicators holds the normalized health ratios derived from an
// analysis over a given projection horizon.
type HealthIndicators struct {
	AvgMonthlyIncome   Money     `json:"avgMonthlyIncome"`
	AvgMonthlyExpenses Money     `json:"avgMonthlyExpenses"`
	SavingsRate        Indicator `json:"savingsRate"`
	Commitment         Indicator `json:"commitment"`
	CushionMonths      Indicator `json:"cushionMonths"`
}

// ComputeHealth derives the health ratios from an analysis. All
// division-by-zero shaped conditions resolve to 0; they are never errors.
func ComputeHealth(a Analysis, periodMonths int) HealthIndicators {
	var h HealthIndicators
	if periodMonths > 0 {
		h.AvgMonthlyIncome = Money{Cents: a.TotalIncome.Cents / int64(periodMonths)}
		h.AvgMonthlyExpenses = Money{Cents: a.TotalExpenses.Cents / int64(periodMonths)}
	}

	avgIncome := h.AvgMonthlyIncome.Units()
	avgExpenses := h.AvgMonthlyExpenses.Units()

	var savings, commitment, cushion float64
	if avgIncome > 0 {
		savings = (avgIncome - avgExpenses) / avgIncome * 100
		commitment = avgExpenses * debtShareOfExpenses / avgIncome * 100
	}
	if avgExpenses > 0 {
		cushion = a.FinalBalance.Units() / avgExpenses
	}

	h.SavingsRate = Indicator{Value: savings, Band: bandFor(savings, 0, 20, false)}
	h.Commitment = Indicator{Value: commitment, Band: bandFor(commitment, 40, 30, true)}
	h.CushionMonths = Indicator{Value: cushion, Band: bandFor(cushion, 3, cushionTargetMonths, false)}
	return h
}

// bandFor classifies v against two thresholds. For lower-is-worse
// indicators (savings rate, cushion) red/yellow are the lower bounds;
// for higher-is-worse (commitment) they are the upper bounds.
func bandFor(v, redAt, yellowAt float64, higherIsWorse bool) Band {
	if higherIsWorse {
		switch {
		case v > redAt:
			return BandRed
		case v > yellowAt:
			return BandYellow
		default:
			return BandGreen
		}
	}
	switch {
	case v < redAt:
		return BandRed
	case v < yellowAt:
		return BandYellow
	default:
		return BandGreen
	}
}

// RecommendationKind identifies which rule produced a recommendation.
type RecommendationKind string

const (
	RecNegativeBalance RecommendationKind = "negative_balance"
	RecLowSavings      RecommendationKind = "low_savings"
	RecLowCushion      RecommendationKind = "low_cushion"
	RecOnTrack         RecommendationKind = "on_track"
)

// Severity grades a recommendation for display purposes.
type Severity string

const (
	SeverityAlert   Severity = "alert"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// Recommendation is one qualitative, rule-based finding.
type Recommendation struct {
	Kind     RecommendationKind `json:"kind"`
	Severity Severity           `json:"severity"`
	Message  string             `json:"message"`
	// MonthKey is set for the negative-balance rule.
	MonthKey string `json:"monthKey,omitempty"`
	// TopUp is set for the cushion rule: the amount needed to reach the
	// target cushion.
	TopUp *Money `json:"topUp,omitempty"`
}

// Recommendations evaluates every rule independently and returns all
// applicable findings in fixed priority order: negative balance first,
// then low savings, then insufficient cushion, then the congratulatory
// on-track message.
func Recommendations(projection []ProjectionMonth, h HealthIndicators, a Analysis) []Recommendation {
	var recs []Recommendation

	for _, row := range projection {
		if row.IsNegative {
			recs = append(recs, Recommendation{
				Kind:     RecNegativeBalance,
				Severity: SeverityAlert,
				Message:  fmt.Sprintf("accumulated balance turns negative in %s", row.Month),
				MonthKey: row.MonthKey,
			})
			break
		}
	}

	if h.SavingsRate.Value < 20 {
		recs = append(recs, Recommendation{
			Kind:     RecLowSavings,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("savings rate is %.1f%%; aim for at least 20%% of income", h.SavingsRate.Value),
		})
	}

	if h.AvgMonthlyExpenses.Cents > 0 && h.CushionMonths.Value < cushionTargetMonths {
		target := h.AvgMonthlyExpenses.Cents * cushionTargetMonths
		if topUp := target - a.FinalBalance.Cents; topUp > 0 {
			recs = append(recs, Recommendation{
				Kind:     RecLowCushion,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("emergency cushion covers %.1f months of expenses; add %s to reach %d months",
					h.CushionMonths.Value, Money{Cents: topUp}, cushionTargetMonths),
				TopUp: &Money{Cents: topUp},
			})
		}
	}

	if a.FinalBalance.Cents > 0 && h.SavingsRate.Value > 20 {
		recs = append(recs, Recommendation{
			Kind:     RecOnTrack,
			Severity: SeveritySuccess,
			Message:  fmt.Sprintf("positive final balance and a %.1f%% savings rate; keep it up", h.SavingsRate.Value),
		})
	}

	return recs
}
