package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/aml-oracle-backend/audit"
)

// FileBackend persists audit events to the local file system as a JSON
// Lines file, one event per line, append only.
type FileBackend struct {
	baseDir     string
	trailPath   string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file trail backend using the specified base
// directory. The directory is created if it does not exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		trailPath:   filepath.Join(baseDir, "trail.jsonl"),
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Append serializes the event and appends it as one line to the trail file.
func (b *FileBackend) Append(ctx context.Context, ev audit.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	f, err := os.OpenFile(b.trailPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open trail file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	b.log.Debug("Appended audit event to file",
		slog.String("path", b.trailPath),
		slog.String("event_id", ev.ID.String()),
		slog.String("kind", string(ev.Kind)))

	return nil
}

// Available checks if the file backend is accessible by verifying the base
// directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this trail backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this trail backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}
