package model

// ReviewStatus is the review state reported for a submission.
type ReviewStatus string

const (
	StatusApproved  ReviewStatus = "approved"
	StatusReviewing ReviewStatus = "reviewing"
	StatusRejected  ReviewStatus = "rejected"
)

// Homework is one submission record from the status API.
type Homework struct {
	Name   string       `json:"homework_name"`
	Status ReviewStatus `json:"status"`
}

// StatusResponse is a validated status API payload.
type StatusResponse struct {
	CurrentDate int64      `json:"current_date"`
	Homeworks   []Homework `json:"homeworks"`
}
