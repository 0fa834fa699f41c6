package domain

// transitions is the lead state machine. A missing entry means the transition
// is not allowed. expired and invalid are handled below: both are reachable
// from every non-terminal state.
var transitions = map[Status][]Status{
	StatusNew:         {StatusVerified},
	StatusVerified:    {StatusVerified, StatusDistributed},
	StatusDistributed: {StatusInProgress, StatusCompleted},
	StatusInProgress:  {StatusCompleted},
}

// ValidStatus reports whether s is a known lead status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusNew, StatusVerified, StatusDistributed, StatusInProgress,
		StatusCompleted, StatusExpired, StatusInvalid:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusInvalid
}

// CanTransition reports whether a lead may move from one status to another.
// Re-verification (verified to verified) is allowed so the ledger can grow
// without regressing status.
func CanTransition(from, to Status) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StatusExpired || to == StatusInvalid {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanForceComplete reports whether the completed status may be forced onto a
// lead outside the normal table. Quote acceptance and a won assignment
// complete the lead from any state except invalid.
func CanForceComplete(from Status) bool {
	return from != StatusInvalid && from != StatusExpired
}
