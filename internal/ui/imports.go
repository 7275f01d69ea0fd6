package ui

import "github.com/bamsammich/rsniff/internal/event"

// Event is re-exported for presenters.
type Event = event.Event

// Re-export event types for convenience.
const (
	FixtureResolved    = event.FixtureResolved
	BackupCreated      = event.BackupCreated
	FixtureCreated     = event.FixtureCreated
	PlaceholderWritten = event.PlaceholderWritten
	VerifyStarted      = event.VerifyStarted
	VerifyOK           = event.VerifyOK
	VerifyFailed       = event.VerifyFailed
)
