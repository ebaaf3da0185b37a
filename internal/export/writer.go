// Package export writes flat track records to CSV files and reads them back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Output file names, relative to the output directory.
const (
	LikedTracksFile    = "my_tracks_basic_info.csv"
	PlaylistTracksFile = "playlist_tracks_info.csv"
	PlaylistMoodsFile  = "playlist_moods.csv"
)

// Mode decides what happens when an output file already exists.
type Mode string

const (
	// ModeOverwrite truncates an existing file.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend adds rows to an existing file. The header is written only
	// when the file is new or empty.
	ModeAppend Mode = "append"
	// ModeFailIfExists refuses to touch an existing file.
	ModeFailIfExists Mode = "fail-if-exists"
)

// ErrInvalidMode is returned by ParseMode for an unknown mode name.
var ErrInvalidMode = errors.New("invalid write mode")

// ParseMode converts a mode name, as found in config or flags, to a Mode.
// An empty name selects ModeOverwrite.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeOverwrite, nil
	case ModeOverwrite, ModeAppend, ModeFailIfExists:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q (want %s, %s or %s)", ErrInvalidMode, s, ModeOverwrite, ModeAppend, ModeFailIfExists)
	}
}

func (m Mode) openFlags() int {
	switch m {
	case ModeAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case ModeFailIfExists:
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL
	default:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
}

// Writer writes CSV files using one Mode for every output.
type Writer struct {
	mode   Mode
	logger zerolog.Logger
}

// NewWriter creates a Writer. An empty mode means ModeOverwrite.
func NewWriter(mode Mode, logger zerolog.Logger) *Writer {
	if mode == "" {
		mode = ModeOverwrite
	}
	return &Writer{
		mode:   mode,
		logger: logger.With().Str("component", "export").Logger(),
	}
}

// Mode returns the write mode.
func (w *Writer) Mode() Mode {
	return w.mode
}

// WriteRecords writes header followed by rows to path, in order.
// Every row must have as many columns as the header; this is checked before
// the file is opened, so a bad row leaves the file untouched.
func (w *Writer) WriteRecords(path string, header []string, rows [][]string) error {
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("row %d has %d columns, header has %d", i, len(row), len(header))
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, w.mode.openFlags(), 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	writeHeader := true
	if w.mode == ModeAppend {
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", path, err)
		}
		writeHeader = info.Size() == 0
	}

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV records: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	w.logger.Info().
		Str("path", path).
		Str("mode", string(w.mode)).
		Int("rows", len(rows)).
		Msg("Data saved to file")
	return nil
}

// ReadRecords reads a CSV file written by WriteRecords. Each row is returned
// as a map keyed by the header column names.
func ReadRecords(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	var records []map[string]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		record := make(map[string]string, len(header))
		for i, col := range header {
			record[col] = row[i]
		}
		records = append(records, record)
	}

	if records == nil {
		records = []map[string]string{}
	}
	return records, nil
}
