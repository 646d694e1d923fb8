// Package domain holds chat room identity rules.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// DirectRoomKey builds the canonical key for a direct room. Participant IDs
// are sorted so the same pair always maps to the same key, and the job ID is
// appended so per-job conversations stay separate.
func DirectRoomKey(userA, userB uuid.UUID, jobID *uuid.UUID) string {
	a, b := userA.String(), userB.String()
	if b < a {
		a, b = b, a
	}
	key := "direct_" + a + "_" + b
	if jobID != nil {
		key += "_job_" + jobID.String()
	}
	return key
}

// SystemRoomKey builds the key for an audience-wide system room.
func SystemRoomKey(audience string) string {
	return "system_" + strings.ToLower(audience)
}
