package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGraylogHandler returns a JSON handler that ships every record to a
// Graylog GELF UDP input. The returned closer releases the socket.
func NewGraylogHandler(address, facility, level string) (slog.Handler, io.Closer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create graylog writer: %w", err)
	}
	if facility != "" {
		w.Facility = facility
	}
	return slog.NewJSONHandler(w, handlerOptions(parseLevel(level))), w, nil
}
