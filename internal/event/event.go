package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	FixtureResolved Type = iota + 1
	BackupCreated
	FixtureCreated
	PlaceholderWritten
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	FixtureResolved:    "FixtureResolved",
	BackupCreated:      "BackupCreated",
	FixtureCreated:     "FixtureCreated",
	PlaceholderWritten: "PlaceholderWritten",
	VerifyStarted:      "VerifyStarted",
	VerifyOK:           "VerifyOK",
	VerifyFailed:       "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single step taken while provisioning or verifying
// fixtures.
type Event struct {
	Type      Type
	Timestamp time.Time
	Role      string // fixture role name, e.g. "sniffed-input"
	Path      string // absolute path on the endpoint's host
	Size      int64  // bytes written, or file size for verify events
	Error     error
}

// Emit sends ev on ch with the current timestamp. A nil channel drops the
// event.
func Emit(ch chan<- Event, ev Event) {
	if ch == nil {
		return
	}
	ev.Timestamp = time.Now()
	ch <- ev
}
