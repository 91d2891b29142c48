package source

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

const (
	// DefaultDelimiter separates word and translation on a text line
	DefaultDelimiter = "\t"

	maxLineBytes       = 1 << 20
	ctxCheckEveryLines = 4096
	utf8BOM            = "\ufeff"
)

// ParseStats summarizes one text parse
type ParseStats struct {
	Lines   int // physical lines read
	Entries int
	Skipped int // malformed records dropped
}

// TextFile reads "word<delimiter>translation" lines. Blank lines and lines
// starting with '#' are ignored; malformed lines are dropped and counted.
type TextFile struct {
	path      string
	delimiter string
	logger    *log.Logger
}

// NewTextFile creates a text source; an empty delimiter means tab
func NewTextFile(path, delimiter string) *TextFile {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &TextFile{path: path, delimiter: delimiter, logger: logger.New("source")}
}

// Path returns the file path
func (t *TextFile) Path() string {
	return t.path
}

// LoadEntries reads the whole file. Text files have no cache, so forceRefresh is irrelevant.
func (t *TextFile) LoadEntries(ctx context.Context, _ bool) ([]model.Entry, error) {
	f, err := os.Open(t.path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, errors.NewDataSourceError(t.path, err)
	}
	defer f.Close()

	entries, stats, err := ParseText(ctx, f, t.delimiter)
	if err != nil {
		return nil, errors.NewDataSourceError(t.path, err)
	}
	if stats.Skipped > 0 {
		t.logger.Debug("dropped malformed records", "path", t.path, "skipped", stats.Skipped)
	}
	t.logger.Debug("parsed text dataset", "path", t.path, "lines", stats.Lines, "entries", stats.Entries)
	return entries, nil
}

// ParseText parses delimited records from r in order
func ParseText(ctx context.Context, r io.Reader, delimiter string) ([]model.Entry, ParseStats, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var stats ParseStats
	entries := []model.Entry{}
	for scanner.Scan() {
		stats.Lines++
		if stats.Lines%ctxCheckEveryLines == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		line := strings.TrimRight(scanner.Text(), "\r")
		if stats.Lines == 1 {
			line = strings.TrimPrefix(line, utf8BOM)
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		entry, err := parseRecord(line, delimiter, stats.Lines)
		if err != nil {
			stats.Skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("reading line %d: %w", stats.Lines+1, err)
	}

	stats.Entries = len(entries)
	return entries, stats, nil
}

// parseRecord splits on the first delimiter; the translation may itself contain the delimiter.
func parseRecord(line, delimiter string, lineNo int) (model.Entry, error) {
	word, translation, found := strings.Cut(line, delimiter)
	if !found {
		return model.Entry{}, errors.NewMalformedRecordError(lineNo, "missing delimiter")
	}
	entry, err := model.NewEntry(word, translation)
	if err != nil {
		var mre *errors.MalformedRecordError
		if stderrors.As(err, &mre) {
			return model.Entry{}, errors.NewMalformedRecordError(lineNo, mre.Reason)
		}
		return model.Entry{}, err
	}
	return entry, nil
}
