package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusNew, StatusVerified, true},
		{StatusNew, StatusDistributed, false},
		{StatusNew, StatusCompleted, false},
		{StatusVerified, StatusVerified, true},
		{StatusVerified, StatusDistributed, true},
		{StatusVerified, StatusNew, false},
		{StatusDistributed, StatusInProgress, true},
		{StatusDistributed, StatusCompleted, true},
		{StatusDistributed, StatusVerified, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusDistributed, false},

		{StatusNew, StatusExpired, true},
		{StatusNew, StatusInvalid, true},
		{StatusInProgress, StatusInvalid, true},

		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusInvalid, false},
		{StatusExpired, StatusVerified, false},
		{StatusExpired, StatusInvalid, false},
		{StatusInvalid, StatusNew, false},
		{StatusInvalid, StatusExpired, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusExpired, StatusInvalid}
	for _, s := range terminal {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false, want true", s)
		}
	}
	open := []Status{StatusNew, StatusVerified, StatusDistributed, StatusInProgress}
	for _, s := range open {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true, want false", s)
		}
	}
}

func TestCanForceComplete(t *testing.T) {
	tests := []struct {
		from Status
		want bool
	}{
		{StatusNew, true},
		{StatusVerified, true},
		{StatusDistributed, true},
		{StatusInProgress, true},
		{StatusCompleted, true},
		{StatusInvalid, false},
		{StatusExpired, false},
	}
	for _, tt := range tests {
		if got := CanForceComplete(tt.from); got != tt.want {
			t.Errorf("CanForceComplete(%s) = %v, want %v", tt.from, got, tt.want)
		}
	}
}

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		status    Status
		expiresAt time.Time
		want      Status
	}{
		{"live lead keeps status", StatusDistributed, future, StatusDistributed},
		{"past deadline projects expired", StatusDistributed, past, StatusExpired},
		{"completed lead never projects expired", StatusCompleted, past, StatusCompleted},
		{"invalid lead never projects expired", StatusInvalid, past, StatusInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := Lead{Status: tt.status, ExpiresAt: tt.expiresAt}
			if got := lead.EffectiveStatus(now); got != tt.want {
				t.Errorf("EffectiveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}
