package source

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// MsgpackFile reads a msgpack array of {w, t} maps
type MsgpackFile struct {
	path   string
	logger *log.Logger
}

// NewMsgpackFile creates a msgpack source
func NewMsgpackFile(path string) *MsgpackFile {
	return &MsgpackFile{path: path, logger: logger.New("source")}
}

// Path returns the file path
func (m *MsgpackFile) Path() string {
	return m.path
}

// LoadEntries decodes the file. Records with an empty word or translation are dropped.
func (m *MsgpackFile) LoadEntries(ctx context.Context, _ bool) ([]model.Entry, error) {
	f, err := os.Open(m.path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, errors.NewDataSourceError(m.path, err)
	}
	defer f.Close()

	entries, skipped, err := ReadMsgpack(ctx, bufio.NewReader(f))
	if err != nil {
		return nil, errors.NewDataSourceError(m.path, err)
	}
	if skipped > 0 {
		m.logger.Debug("dropped malformed records", "path", m.path, "skipped", skipped)
	}
	return entries, nil
}

// ReadMsgpack decodes records one at a time and returns the valid entries
// along with the number of records dropped.
func ReadMsgpack(ctx context.Context, r io.Reader) ([]model.Entry, int, error) {
	dec := msgpack.NewDecoder(r)
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, 0, err
	}

	entries := make([]model.Entry, 0, max(n, 0))
	skipped := 0
	for i := 0; i < n; i++ {
		if i%ctxCheckEveryLines == 0 {
			if err := ctx.Err(); err != nil {
				return nil, skipped, err
			}
		}
		var raw model.Entry
		if err := dec.Decode(&raw); err != nil {
			return nil, skipped, err
		}
		entry, err := model.NewEntry(raw.Word, raw.Translation)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}

// WriteMsgpack encodes entries in the format MsgpackFile reads
func WriteMsgpack(w io.Writer, entries []model.Entry) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.EncodeArrayLen(len(entries)); err != nil {
		return err
	}
	for i := range entries {
		if err := enc.Encode(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Convert reads any supported dataset and writes it as msgpack to dst
func Convert(ctx context.Context, src File, dst string) (int, error) {
	entries, err := src.LoadEntries(ctx, true)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(dst) // #nosec G304 -- path comes from the command line
	if err != nil {
		return 0, errors.NewDataSourceError(dst, err)
	}
	w := bufio.NewWriter(f)
	if err := WriteMsgpack(w, entries); err != nil {
		_ = f.Close()
		return 0, errors.NewDataSourceError(dst, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return 0, errors.NewDataSourceError(dst, err)
	}
	if err := f.Close(); err != nil {
		return 0, errors.NewDataSourceError(dst, err)
	}
	return len(entries), nil
}
