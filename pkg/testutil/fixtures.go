package testutil

import (
	"time"

	"github.com/google/uuid"
)

// Fixed values for deterministic testing
var (
	TestAssessmentID1 = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	TestAssessmentID2 = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	TestUserID        = uuid.MustParse("00000000-0000-0000-0000-000000000010")

	TestAssessedAt = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
)
