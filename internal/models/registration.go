package models

import "time"

// RequestStatus is the lifecycle state of a self-registration request.
// Transitions are monotonic: pending may move to approved or rejected once,
// terminal states never change again.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// PendingRequest is a self-submitted registration awaiting an admin decision.
// Rows are retained after the decision for audit; the workflow never deletes
// them.
type PendingRequest struct {
	ID         string        `db:"id" json:"id"`
	Name       string        `db:"name" json:"name"`
	Email      string        `db:"email" json:"email"`
	Role       UserRole      `db:"role" json:"role"`
	Class      *string       `db:"class" json:"class,omitempty"`
	Subject    *string       `db:"subject" json:"subject,omitempty"`
	Status     RequestStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	ApprovedAt *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy *string       `db:"approved_by" json:"approved_by,omitempty"`
}

// PendingRequestFilter captures listing criteria for registration requests.
type PendingRequestFilter struct {
	Status   *RequestStatus
	Page     int
	PageSize int
}

// ApprovalResult is returned to the deciding admin after a successful
// approval. GeneratedPassword is only set when a fresh credential was
// created; a reused identity keeps its original password.
type ApprovalResult struct {
	Request           *PendingRequest `json:"request"`
	Profile           *Profile        `json:"profile"`
	IdentityID        string          `json:"identity_id"`
	GeneratedPassword string          `json:"generated_password,omitempty"`
	IdentityReused    bool            `json:"identity_reused"`
}
