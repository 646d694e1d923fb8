package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{StatusTrial, StatusActive, true},
		{StatusTrial, StatusExpired, true},
		{StatusTrial, StatusSuspended, false},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusActive, true},
		{StatusActive, StatusSuspended, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusApproved, false},
		{StatusSuspended, StatusActive, true},
		{StatusSuspended, StatusExpired, false},
		{StatusExpired, StatusActive, true},
		{StatusRejected, StatusActive, false},
		{StatusRejected, StatusPending, false},
		{"unknown", StatusActive, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestRejectedIsTerminal(t *testing.T) {
	for _, to := range []string{StatusTrial, StatusPending, StatusApproved, StatusActive, StatusSuspended, StatusExpired} {
		if CanTransition(StatusRejected, to) {
			t.Errorf("rejected services must not move to %q", to)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range []string{StatusTrial, StatusPending, StatusApproved, StatusRejected, StatusActive, StatusSuspended, StatusExpired} {
		if !IsValidStatus(status) {
			t.Errorf("IsValidStatus(%q) = false, want true", status)
		}
	}
	if IsValidStatus("archived") {
		t.Error(`IsValidStatus("archived") = true, want false`)
	}
}

func TestIsVisible(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusTrial, true},
		{StatusApproved, true},
		{StatusActive, true},
		{StatusPending, false},
		{StatusRejected, false},
		{StatusSuspended, false},
		{StatusExpired, false},
	}

	for _, tc := range tests {
		if got := IsVisible(tc.status); got != tc.want {
			t.Errorf("IsVisible(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestIsBillable(t *testing.T) {
	if !IsBillable(StatusActive) {
		t.Error("active services should be billable")
	}
	for _, status := range []string{StatusTrial, StatusPending, StatusApproved, StatusRejected, StatusSuspended, StatusExpired} {
		if IsBillable(status) {
			t.Errorf("IsBillable(%q) = true, want false", status)
		}
	}
}
