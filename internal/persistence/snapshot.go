package persistence

import (
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash"

	"github.com/gcbaptista/go-dictionary-lookup/model"
)

// ErrChecksumMismatch is returned when a snapshot's entries do not hash to the stored checksum
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// Fingerprint identifies the version of a source file a snapshot was taken from
type Fingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Equal compares fingerprints; modification times are compared with Time.Equal
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Path == other.Path && f.Size == other.Size && f.ModTime.Equal(other.ModTime)
}

// EntrySnapshot is a parsed dataset cached on disk
type EntrySnapshot struct {
	Source   Fingerprint
	Checksum uint64
	Entries  []model.Entry
	SavedAt  time.Time
}

// Checksum hashes entries in order
func Checksum(entries []model.Entry) uint64 {
	h := xxhash.New()
	sep := []byte{0}
	for _, e := range entries {
		_, _ = h.Write([]byte(e.Word))
		_, _ = h.Write(sep)
		_, _ = h.Write([]byte(e.Translation))
		_, _ = h.Write(sep)
	}
	return h.Sum64()
}

// SaveSnapshot writes entries with their source fingerprint and checksum
func SaveSnapshot(filePath string, source Fingerprint, entries []model.Entry) error {
	snap := EntrySnapshot{
		Source:   source,
		Checksum: Checksum(entries),
		Entries:  entries,
		SavedAt:  time.Now(),
	}
	return SaveGob(filePath, &snap)
}

// LoadSnapshot reads a snapshot and verifies its checksum. A missing file yields os.ErrNotExist.
func LoadSnapshot(filePath string) (*EntrySnapshot, error) {
	var snap EntrySnapshot
	if err := LoadGob(filePath, &snap); err != nil {
		return nil, err
	}
	if got := Checksum(snap.Entries); got != snap.Checksum {
		return nil, fmt.Errorf("%w: %s (stored %x, computed %x)", ErrChecksumMismatch, filePath, snap.Checksum, got)
	}
	return &snap, nil
}
