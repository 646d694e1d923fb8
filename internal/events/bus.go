// Package events defines the domain events exchanged between modules and
// aliases the platform bus so modules only ever import internal/events.
package events

import (
	platformevents "serviceconnect_backend/platform/events"
	"serviceconnect_backend/platform/logger"
)

// InMemoryBus aliases the platform in-process bus.
type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus constructs the single bus shared by all modules.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
