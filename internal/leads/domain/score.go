package domain

const (
	scoreBase               = 50
	scoreImmediate          = 30
	scoreWithinMonth        = 20
	scoreWithinThreeMonths  = 10
	scoreAuthenticatedOwner = 10
	scoreBudgetPresent      = 5
	scoreMax                = 100
)

// Score computes a lead's priority score from its attributes. Deterministic,
// always in [0, 100]. Recomputed before persisting any mutation that touches
// a scoring input.
func Score(l *Lead) int {
	score := scoreBase

	switch l.ProjectTimeline {
	case TimelineImmediate:
		score += scoreImmediate
	case TimelineWithinMonth:
		score += scoreWithinMonth
	case TimelineWithinThreeMonths:
		score += scoreWithinThreeMonths
	}

	if l.IsHomeowner {
		score += scoreAuthenticatedOwner
	}
	if l.BudgetRange != nil && *l.BudgetRange != "" {
		score += scoreBudgetPresent
	}

	if score > scoreMax {
		score = scoreMax
	}
	return score
}

// ValidScore reports whether s is inside the allowed range. Used as a
// defensive check before persistence.
func ValidScore(s int) bool { return s >= 0 && s <= scoreMax }
