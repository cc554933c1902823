package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidStatus is returned when a status is not one of the values offered by the selector
var ErrInvalidStatus = errors.New("invalid report status")

// Status is the review state of a report
type Status string

const (
	// StatusOngoing marks a report that is still being worked on
	StatusOngoing Status = "Ongoing"
	// StatusResolved marks a report that has been closed out
	StatusResolved Status = "Resolved"
)

// Statuses lists the values an operator can pick, in selector order
var Statuses = []Status{StatusOngoing, StatusResolved}

// ParseStatus converts a raw selector or API value into a Status
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the two known statuses
func (s Status) Valid() bool {
	return s == StatusOngoing || s == StatusResolved
}

// Label is the text shown for the status in the dashboard selector
func (s Status) Label() string {
	if s == StatusOngoing {
		return "In Progress"
	}
	return string(s)
}

// Report is a row of the reportform table. The backend owns it; the dashboard
// only ever holds a copy.
type Report struct {
	ID        int64     `json:"id" bson:"id"`
	File      string    `json:"file" bson:"file"`
	Location  string    `json:"location" bson:"location"`
	DateTime  time.Time `json:"date_time" bson:"date_time"`
	Detail    string    `json:"detail" bson:"detail"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	UpdateAt  time.Time `json:"update_at" bson:"update_at"`
	Status    Status    `json:"status" bson:"status"`
}

// ReportRow is a report as the dashboard renders it
type ReportRow struct {
	Report
	// EffectiveStatus is the staged status when one exists, else the synced one
	EffectiveStatus Status `json:"effective_status"`
	Staged          bool   `json:"staged"`
	InReview        bool   `json:"in_review"`
}

// StageRequest is the body accepted when staging a status change
type StageRequest struct {
	Status string `json:"status"`
}
