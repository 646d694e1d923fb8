// Package domain provides core business rules for the providers bounded context.
package domain

// Service subscription statuses. Each service offering moves through this
// machine independently of its siblings on the same profile.
const (
	StatusTrial     = "trial"
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusExpired   = "expired"
)

// allowedTransitions maps a status to the set of statuses it may move to.
var allowedTransitions = map[string]map[string]bool{
	StatusTrial:     {StatusActive: true, StatusExpired: true},
	StatusPending:   {StatusApproved: true, StatusRejected: true, StatusActive: true},
	StatusApproved:  {StatusActive: true},
	StatusActive:    {StatusSuspended: true, StatusExpired: true},
	StatusSuspended: {StatusActive: true},
	StatusExpired:   {StatusActive: true},
	StatusRejected:  {},
}

// CanTransition reports whether a service may move from one status to another.
func CanTransition(from, to string) bool {
	return allowedTransitions[from][to]
}

// IsValidStatus reports whether the status is a known service status.
func IsValidStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// IsBillable reports whether the status represents a service that currently
// needs an active subscription to keep running.
func IsBillable(status string) bool {
	return status == StatusActive
}

// IsVisible reports whether the service should show on public provider
// listings (paying or still inside the free trial).
func IsVisible(status string) bool {
	return status == StatusActive || status == StatusTrial || status == StatusApproved
}
