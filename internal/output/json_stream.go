package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/temirov/ctxdump/internal/services/stream"
)

type jsonStreamRenderer struct {
	encoder     *json.Encoder
	renderError error
}

// NewJSONStreamRenderer writes every event as one JSON object per line.
func NewJSONStreamRenderer(stdout io.Writer) StreamRenderer {
	return &jsonStreamRenderer{encoder: json.NewEncoder(stdout)}
}

func (renderer *jsonStreamRenderer) Handle(event stream.Event) {
	if renderer.renderError != nil {
		return
	}
	if err := renderer.encoder.Encode(event); err != nil {
		renderer.renderError = fmt.Errorf("encoding %s event: %w", event.Kind, err)
	}
}

func (renderer *jsonStreamRenderer) Flush() error {
	return renderer.renderError
}
