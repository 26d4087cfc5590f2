package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailableSpots(t *testing.T) {
	experience := &Experience{
		MaxParticipants: 8,
		BookedParticipants: map[string]int{
			"2026-09-10": 5,
			"2026-09-11": 8,
			"2026-09-12": 11,
		},
	}

	assert.Equal(t, 3, experience.AvailableSpots("2026-09-10"))
	assert.Equal(t, 0, experience.AvailableSpots("2026-09-11"))

	// An over-committed ledger entry must never report negative spots
	assert.Equal(t, 0, experience.AvailableSpots("2026-09-12"))

	// Dates without a ledger entry have full capacity
	assert.Equal(t, 8, experience.AvailableSpots("2026-12-25"))
}

func TestAvailableSpotsNilLedger(t *testing.T) {
	experience := &Experience{MaxParticipants: 6}

	assert.Equal(t, 6, experience.AvailableSpots("2026-09-10"))
}
