package stream

import (
	"time"

	"github.com/temirov/ctxdump/internal/types"
)

// SchemaVersion identifies the event layout consumed by presentation layers.
const SchemaVersion = 1

// EventKind discriminates the payload of an Event.
type EventKind string

const (
	EventKindStatus    EventKind = "status"
	EventKindProgress  EventKind = "progress"
	EventKindFileCount EventKind = "file_count"
	EventKindCompleted EventKind = "task_completed"
	EventKindError     EventKind = "error"
	EventKindFinished  EventKind = "finished"
)

// Level classifies status events for presentation.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// RunPhase is the state of an aggregation run when an event was emitted.
type RunPhase string

const (
	PhaseIdle          RunPhase = "idle"
	PhaseScanning      RunPhase = "scanning"
	PhaseCollecting    RunPhase = "collecting"
	PhaseWriting       RunPhase = "writing"
	PhaseCompleted     RunPhase = "completed"
	PhaseStoppedByUser RunPhase = "stopped_by_user"
	PhaseFailed        RunPhase = "failed"
)

// IsTerminal reports whether no further work follows the phase.
func (phase RunPhase) IsTerminal() bool {
	switch phase {
	case PhaseCompleted, PhaseStoppedByUser, PhaseFailed:
		return true
	default:
		return false
	}
}

// Event is one ordered notification from an aggregation run.
type Event struct {
	Version   int       `json:"version"`
	Kind      EventKind `json:"kind"`
	Phase     RunPhase  `json:"phase"`
	EmittedAt time.Time `json:"emittedAt,omitempty"`

	Level   Level  `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
	// Path is the relative path being written for status events and the
	// output document for completion events.
	Path    string            `json:"path,omitempty"`
	Percent int               `json:"percent,omitempty"`
	Count   int               `json:"count,omitempty"`
	Summary *types.RunSummary `json:"summary,omitempty"`
}

// Observer receives events in the order they are produced.
type Observer interface {
	Handle(event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(event Event)

// Handle calls the wrapped function.
func (observerFunction ObserverFunc) Handle(event Event) {
	observerFunction(event)
}

// ChannelObserver forwards events onto a channel. Sends block until the
// consumer receives, so delivery order equals production order.
type ChannelObserver struct {
	out chan<- Event
}

// NewChannelObserver returns an Observer writing to out.
func NewChannelObserver(out chan<- Event) ChannelObserver {
	return ChannelObserver{out: out}
}

// Handle sends the event.
func (observer ChannelObserver) Handle(event Event) {
	observer.out <- event
}

type nopObserver struct{}

func (nopObserver) Handle(Event) {}
