// Package output presents aggregation events to the user.
package output

import (
	"github.com/temirov/ctxdump/internal/services/stream"
)

// StreamRenderer draws events as they arrive. Flush reports the first
// rendering failure and finalizes any partial line.
type StreamRenderer interface {
	Handle(event stream.Event)
	Flush() error
}
