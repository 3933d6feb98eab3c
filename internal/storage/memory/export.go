package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	v1 "github.com/OCAP2/gaze/internal/storage/memory/export/v1"
	"github.com/OCAP2/gaze/pkg/core"
)

// exportJSON writes the session data to a (optionally gzipped) JSON file
func (b *Backend) exportJSON() error {
	export := v1.Build(*b.session, b.transitions, b.stats)

	timestamp := b.session.StartTime.UTC().Format("20060102_150405")
	filename := fmt.Sprintf("gaze_%s_%s.json", timestamp, b.session.ID.String()[:8])
	if b.cfg.CompressOutput {
		filename += ".gz"
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	b.lastExportMetadata = core.UploadMetadata{
		SessionID:   b.session.ID,
		Source:      b.session.Source,
		Host:        b.session.Host,
		StartTime:   b.session.StartTime,
		Transitions: len(b.transitions),
	}
	if !b.session.EndTime.IsZero() {
		b.lastExportMetadata.Duration = b.session.EndTime.Sub(b.session.StartTime)
	}
	return nil
}

func writeJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeGzipJSON(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	encoder := json.NewEncoder(gw)
	if err := encoder.Encode(data); err != nil {
		gw.Close()
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return nil
}
