package dto

// RequestAbsenceRequest opens an absence request against a shift.
type RequestAbsenceRequest struct {
	ShiftID  string `json:"shift_id" validate:"required"`
	Category string `json:"category" validate:"required"`
	Details  string `json:"details"`
	Comments string `json:"comments"`
}

// RequestCoverageRequest offers to cover an absent volunteer's shift.
type RequestCoverageRequest struct {
	Message string `json:"message"`
}

// CoverageDecisionRequest approves or rejects one volunteer's coverage
// offer. Signoff records the deciding admin's initials.
type CoverageDecisionRequest struct {
	VolunteerID string `json:"volunteer_id" validate:"required"`
	Signoff     string `json:"signoff" validate:"required"`
}
