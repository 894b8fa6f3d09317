package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsenceRequestStatus(t *testing.T) {
	coverer := "vol-2"

	cases := []struct {
		name     string
		approved bool
		covered  *string
		offers   int
		want     AbsenceStatus
	}{
		{"fresh request", false, nil, 0, AbsenceStatusPending},
		{"approved, no offers", true, nil, 0, AbsenceStatusOpen},
		{"approved with standing offer", true, nil, 1, AbsenceStatusCoveragePending},
		{"offer before absence approval", false, nil, 1, AbsenceStatusCoveragePending},
		{"offer accepted", true, &coverer, 1, AbsenceStatusResolved},
		{"covered trumps everything", false, &coverer, 3, AbsenceStatusResolved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := AbsenceRequest{Approved: tc.approved, CoveredBy: tc.covered}
			assert.Equal(t, tc.want, req.Status(tc.offers))
		})
	}
}
