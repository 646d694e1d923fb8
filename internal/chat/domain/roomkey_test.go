package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestDirectRoomKeyIsOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	if DirectRoomKey(a, b, nil) != DirectRoomKey(b, a, nil) {
		t.Errorf("expected the same key regardless of argument order")
	}
}

func TestDirectRoomKeyJobScoping(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	jobID := uuid.New()

	plain := DirectRoomKey(a, b, nil)
	scoped := DirectRoomKey(a, b, &jobID)
	if plain == scoped {
		t.Errorf("expected job-scoped key to differ from the plain key")
	}
	if scoped != DirectRoomKey(b, a, &jobID) {
		t.Errorf("expected the same scoped key regardless of argument order")
	}
}

func TestSystemRoomKey(t *testing.T) {
	if got := SystemRoomKey("clients"); got != "system_clients" {
		t.Errorf("SystemRoomKey(clients) = %q, want %q", got, "system_clients")
	}
}
