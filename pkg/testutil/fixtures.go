package testutil

import (
	"github.com/google/uuid"
)

// Fixed message IDs for deterministic event assertions.
var (
	TestMessageID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestMessageID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// Sample message texts exercising each lexical outcome.
const (
	// No fraud indicators.
	BenignText = "Your appointment is confirmed for Tuesday at 3pm."
	// Four indicators: account, suspended, verify, immediately.
	ScamText = "Your account has been suspended. Verify immediately."
	// One indicator ("claim") across eleven words, below the high density cutoff.
	SuspiciousText = "Please call the office to claim your parcel before Friday afternoon"
)
