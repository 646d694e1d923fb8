// Package realtime provides the realtime delivery module: an SSE endpoint
// per user, fanned out across instances through Redis pub/sub.
package realtime

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"serviceconnect_backend/internal/events"
	apphttp "serviceconnect_backend/internal/http"
	"serviceconnect_backend/internal/realtime/sse"
	"serviceconnect_backend/platform/httpkit"
	"serviceconnect_backend/platform/logger"
)

// Module is the realtime module implementing http.Module.
type Module struct {
	hub    *sse.Hub
	bridge *Bridge
	log    *logger.Logger
}

// NewModule creates the realtime module. redisClient may be nil for
// single-instance deployments.
func NewModule(redisClient *redis.Client, log *logger.Logger) *Module {
	hub := sse.NewHub(log)
	return &Module{
		hub:    hub,
		bridge: NewBridge(hub, redisClient, log),
		log:    log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "realtime"
}

// Hub returns the SSE hub for graceful shutdown.
func (m *Module) Hub() *sse.Hub {
	return m.hub
}

// Start launches the Redis listener until the context is cancelled.
func (m *Module) Start(ctx context.Context) {
	go func() {
		if err := m.bridge.Listen(ctx); err != nil && ctx.Err() == nil {
			m.log.Error("realtime bridge stopped", "error", err)
		}
	}()
}

// RegisterRoutes mounts the SSE stream endpoint. The auth middleware accepts
// the token via query parameter for EventSource clients.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/realtime/stream", m.hub.Handler(func(c *gin.Context) (uuid.UUID, bool) {
		identity := httpkit.GetIdentity(c)
		if !identity.IsAuthenticated() {
			return uuid.Nil, false
		}
		return identity.UserID(), true
	}))
}

// RegisterHandlers subscribes to domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.MessageSent{}.EventName(), m)
	bus.Subscribe(events.AnnouncementPublished{}.EventName(), m)
	bus.Subscribe(events.ProposalAccepted{}.EventName(), m)
	bus.Subscribe(events.JobCompleted{}.EventName(), m)
}

// Handle routes events to connected clients.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MessageSent:
		m.bridge.Deliver(ctx, e.Recipients, sse.Event{Type: sse.EventMessage, Data: e})
	case events.AnnouncementPublished:
		// Delivery to the audience happens via the chat system room's
		// MessageSent; this event only reaches admin dashboards.
	case events.ProposalAccepted:
		m.bridge.Deliver(ctx, proposalRecipients(e), sse.Event{Type: sse.EventProposal, Data: e})
	case events.JobCompleted:
		if e.ClientID != nil {
			m.bridge.Deliver(ctx, []uuid.UUID{*e.ClientID}, sse.Event{Type: sse.EventJobUpdated, Data: e})
		}
	}
	return nil
}

// proposalRecipients lists who gets the acceptance push: the client who
// accepted and the provider who won the job.
func proposalRecipients(e events.ProposalAccepted) []uuid.UUID {
	recipients := []uuid.UUID{e.ClientID}
	if e.ProviderUserID != nil {
		recipients = append(recipients, *e.ProviderUserID)
	}
	return recipients
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
