package timeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// CSVWriter writes timeline entries to a CSV file.
type CSVWriter struct {
	file    *os.File
	writer  *csv.Writer
	headers []string
	written int64
	mu      sync.Mutex
}

// CSV headers for timeline export.
var defaultHeaders = []string{
	"timestamp",
	"day",
	"hour",
	"hunger",
	"sleep",
	"happiness",
	"willpower",
	"money",
	"employment_chance",
	"speed",
	"paused",
	"game_over",
}

// NewCSVWriter creates a new CSV writer for the specified path.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}

	return &CSVWriter{
		file:    f,
		writer:  csv.NewWriter(f),
		headers: defaultHeaders,
	}, nil
}

// WriteHeader writes the CSV header row.
func (w *CSVWriter) WriteHeader() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(w.headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

// WriteEntry writes a single timeline entry as a CSV row.
func (w *CSVWriter) WriteEntry(entry TimelineEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := entryToRow(entry)
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	w.written++
	return nil
}

// Flush flushes the CSV writer buffer to disk.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes and closes the CSV file.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Written returns the number of entries written.
func (w *CSVWriter) Written() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// entryToRow converts a TimelineEntry to a CSV row.
func entryToRow(e TimelineEntry) []string {
	return []string{
		e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		strconv.Itoa(e.Day),
		strconv.FormatFloat(e.Hour, 'f', 4, 64),
		strconv.FormatFloat(e.Hunger, 'f', 4, 64),
		strconv.FormatFloat(e.Sleep, 'f', 4, 64),
		strconv.Itoa(e.Happiness),
		strconv.Itoa(e.Willpower),
		strconv.Itoa(e.Money),
		strconv.FormatFloat(e.EmploymentChance, 'f', 4, 64),
		strconv.FormatFloat(e.Speed, 'f', 2, 64),
		strconv.FormatBool(e.Paused),
		strconv.FormatBool(e.GameOver),
	}
}

// rowToEntry parses a CSV row back to a TimelineEntry.
func rowToEntry(row []string) (TimelineEntry, error) {
	if len(row) < len(defaultHeaders) {
		return TimelineEntry{}, fmt.Errorf("row has %d columns, need %d", len(row), len(defaultHeaders))
	}

	var e TimelineEntry
	var err error

	e.Timestamp, err = parseTime(row[0])
	if err != nil {
		return e, fmt.Errorf("invalid timestamp: %w", err)
	}

	if e.Day, err = strconv.Atoi(row[1]); err != nil {
		return e, fmt.Errorf("invalid day: %w", err)
	}
	if e.Hour, err = strconv.ParseFloat(row[2], 64); err != nil {
		return e, fmt.Errorf("invalid hour: %w", err)
	}
	if e.Hunger, err = strconv.ParseFloat(row[3], 64); err != nil {
		return e, fmt.Errorf("invalid hunger: %w", err)
	}
	if e.Sleep, err = strconv.ParseFloat(row[4], 64); err != nil {
		return e, fmt.Errorf("invalid sleep: %w", err)
	}
	if e.Happiness, err = strconv.Atoi(row[5]); err != nil {
		return e, fmt.Errorf("invalid happiness: %w", err)
	}
	if e.Willpower, err = strconv.Atoi(row[6]); err != nil {
		return e, fmt.Errorf("invalid willpower: %w", err)
	}
	if e.Money, err = strconv.Atoi(row[7]); err != nil {
		return e, fmt.Errorf("invalid money: %w", err)
	}
	if e.EmploymentChance, err = strconv.ParseFloat(row[8], 64); err != nil {
		return e, fmt.Errorf("invalid employment_chance: %w", err)
	}
	if e.Speed, err = strconv.ParseFloat(row[9], 64); err != nil {
		return e, fmt.Errorf("invalid speed: %w", err)
	}
	if e.Paused, err = strconv.ParseBool(row[10]); err != nil {
		return e, fmt.Errorf("invalid paused: %w", err)
	}
	if e.GameOver, err = strconv.ParseBool(row[11]); err != nil {
		return e, fmt.Errorf("invalid game_over: %w", err)
	}

	return e, nil
}

// parseTime tries multiple time formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time: %s", s)
}

// ReadCSV reads a CSV file and returns timeline entries.
func ReadCSV(path string) ([]TimelineEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)

	// Read all records
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, nil // Empty file or header only
	}

	// Skip header
	records = records[1:]

	entries := make([]TimelineEntry, 0, len(records))
	for i, row := range records {
		entry, err := rowToEntry(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// LoadCSV reads a timeline CSV into a Timeline with the given sampling interval.
func LoadCSV(path string, interval float64) (*Timeline, error) {
	entries, err := ReadCSV(path)
	if err != nil {
		return nil, err
	}
	tl := NewTimeline(interval)
	for _, e := range entries {
		tl.AddEntry(e)
	}
	return tl, nil
}
