package realtime

import (
	"testing"

	"github.com/google/uuid"

	"serviceconnect_backend/internal/events"
)

func TestProposalRecipientsIncludeBothParties(t *testing.T) {
	clientID := uuid.New()
	providerUserID := uuid.New()

	got := proposalRecipients(events.ProposalAccepted{
		ClientID:       clientID,
		ProviderUserID: &providerUserID,
	})
	if len(got) != 2 {
		t.Fatalf("recipients = %d, want 2", len(got))
	}
	if got[0] != clientID || got[1] != providerUserID {
		t.Errorf("recipients = %v, want client %s and provider %s", got, clientID, providerUserID)
	}
}

func TestProposalRecipientsWithoutProviderUser(t *testing.T) {
	clientID := uuid.New()

	got := proposalRecipients(events.ProposalAccepted{ClientID: clientID})
	if len(got) != 1 || got[0] != clientID {
		t.Errorf("recipients = %v, want only the client %s", got, clientID)
	}
}
