package worker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tracker/internal/core"
	"tracker/internal/export"
	"tracker/internal/sheets"
)

// SheetsSink mirrors the snapshot to a spreadsheet.
type SheetsSink struct {
	writer sheets.SnapshotWriter
}

func NewSheetsSink(w sheets.SnapshotWriter) *SheetsSink {
	return &SheetsSink{writer: w}
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Push(ctx context.Context, records []core.Expense) error {
	return s.writer.WriteSnapshot(ctx, records)
}

// FileSink keeps an export file on local disk.
type FileSink struct {
	path   string
	format export.Format
}

func NewFileSink(path string, format export.Format) *FileSink {
	return &FileSink{path: path, format: format}
}

func (s *FileSink) Name() string { return "file" }

// Push replaces the file atomically.
func (s *FileSink) Push(ctx context.Context, records []core.Expense) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, s.format, records); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Uploader stores a named object remotely. *export.S3Uploader implements it.
type Uploader interface {
	Upload(ctx context.Context, name string, body []byte, contentType string) (string, error)
}

// S3Sink archives one export per day; later syncs on the same day
// overwrite it.
type S3Sink struct {
	uploader Uploader
	format   export.Format
	now      func() time.Time
}

func NewS3Sink(u Uploader, format export.Format) *S3Sink {
	return &S3Sink{uploader: u, format: format, now: time.Now}
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) Push(ctx context.Context, records []core.Expense) error {
	var buf bytes.Buffer
	if err := export.Write(&buf, s.format, records); err != nil {
		return err
	}
	_, err := s.uploader.Upload(ctx, export.Filename(s.now(), s.format), buf.Bytes(), s.format.ContentType())
	return err
}
