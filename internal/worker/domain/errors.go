package domain

import "errors"

var (
	// ErrGigNotFound is returned when a candidate gig disappears between listing and snapshot
	ErrGigNotFound = errors.New("gig not found")

	// ErrAuditRunning is returned by RunCycle while another cycle is in progress
	ErrAuditRunning = errors.New("audit cycle already running")
)
