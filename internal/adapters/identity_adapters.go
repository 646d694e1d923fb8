// Package adapters wires modules together. Each adapter implements a port
// defined by a consuming module's service package on top of another module's
// service, so the modules themselves never import each other.
package adapters

import (
	"context"

	chatservice "serviceconnect_backend/internal/chat/service"
	identityservice "serviceconnect_backend/internal/identity/service"
	"serviceconnect_backend/internal/notification"
	proposalservice "serviceconnect_backend/internal/proposals/service"

	"github.com/google/uuid"
)

// UserEmailAdapter resolves user emails for the proposals module.
type UserEmailAdapter struct {
	identity *identityservice.Service
}

// NewUserEmailAdapter creates an adapter over the identity service.
func NewUserEmailAdapter(identity *identityservice.Service) *UserEmailAdapter {
	return &UserEmailAdapter{identity: identity}
}

func (a *UserEmailAdapter) EmailForUser(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := a.identity.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}

var _ proposalservice.UserEmailResolver = (*UserEmailAdapter)(nil)

// UserContactAdapter resolves user contact details for notifications.
type UserContactAdapter struct {
	identity *identityservice.Service
}

// NewUserContactAdapter creates an adapter over the identity service.
func NewUserContactAdapter(identity *identityservice.Service) *UserContactAdapter {
	return &UserContactAdapter{identity: identity}
}

func (a *UserContactAdapter) GetContact(ctx context.Context, userID uuid.UUID) (notification.Contact, error) {
	user, err := a.identity.GetUser(ctx, userID)
	if err != nil {
		return notification.Contact{}, err
	}
	return notification.Contact{Name: user.Name, Email: user.Email}, nil
}

var _ notification.UserContactReader = (*UserContactAdapter)(nil)

// AudienceAdapter resolves system room audiences to user IDs for the chat
// module's unread fan-out.
type AudienceAdapter struct {
	identity *identityservice.Service
}

// NewAudienceAdapter creates an adapter over the identity service.
func NewAudienceAdapter(identity *identityservice.Service) *AudienceAdapter {
	return &AudienceAdapter{identity: identity}
}

func (a *AudienceAdapter) UserIDsForAudience(ctx context.Context, audience string) ([]uuid.UUID, error) {
	switch audience {
	case chatservice.AudienceClients:
		return a.identity.ListUserIDsByRole(ctx, identityservice.RoleClient)
	case chatservice.AudienceProviders:
		return a.identity.ListUserIDsByRole(ctx, identityservice.RoleProvider)
	case chatservice.AudienceAll:
		clients, err := a.identity.ListUserIDsByRole(ctx, identityservice.RoleClient)
		if err != nil {
			return nil, err
		}
		providers, err := a.identity.ListUserIDsByRole(ctx, identityservice.RoleProvider)
		if err != nil {
			return nil, err
		}

		seen := make(map[uuid.UUID]struct{}, len(clients)+len(providers))
		var all []uuid.UUID
		for _, id := range append(clients, providers...) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
		}
		return all, nil
	default:
		return nil, nil
	}
}

var _ chatservice.AudienceResolver = (*AudienceAdapter)(nil)
