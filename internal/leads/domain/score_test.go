package domain

import (
	"testing"

	"github.com/google/uuid"
)

func strPtr(s string) *string { return &s }

func TestScore(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name string
		lead Lead
		want int
	}{
		{
			name: "immediate homeowner with budget",
			lead: Lead{HomeownerID: &ownerID, IsHomeowner: true, ProjectTimeline: TimelineImmediate, BudgetRange: strPtr("10k-20k")},
			want: 95,
		},
		{
			name: "researching guest without budget",
			lead: Lead{ProjectTimeline: TimelineResearching},
			want: 50,
		},
		{
			name: "within month",
			lead: Lead{ProjectTimeline: TimelineWithinMonth},
			want: 70,
		},
		{
			name: "within three months",
			lead: Lead{ProjectTimeline: TimelineWithinThreeMonths},
			want: 60,
		},
		{
			name: "future timeline adds nothing",
			lead: Lead{ProjectTimeline: TimelineFuture},
			want: 50,
		},
		{
			name: "homeowner only",
			lead: Lead{IsHomeowner: true, ProjectTimeline: TimelineResearching},
			want: 60,
		},
		{
			name: "budget only",
			lead: Lead{ProjectTimeline: TimelineFuture, BudgetRange: strPtr("5k")},
			want: 55,
		},
		{
			name: "empty budget string does not count",
			lead: Lead{ProjectTimeline: TimelineFuture, BudgetRange: strPtr("")},
			want: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(&tt.lead)
			if got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
			if !ValidScore(got) {
				t.Errorf("Score() = %d outside [0,100]", got)
			}
		})
	}
}

func TestScoreNeverExceedsMax(t *testing.T) {
	ownerID := uuid.New()
	lead := Lead{
		HomeownerID:     &ownerID,
		IsHomeowner:     true,
		ProjectTimeline: TimelineImmediate,
		BudgetRange:     strPtr("any"),
	}
	if got := Score(&lead); got > 100 {
		t.Fatalf("Score() = %d, must be capped at 100", got)
	}
}
