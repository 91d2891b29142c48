package source

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-dictionary-lookup/internal/errors"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"words.txt", FormatText, false},
		{"words.TSV", FormatText, false},
		{"dir/words.csv", FormatText, false},
		{"words.msgpack", FormatMsgpack, false},
		{"words.mpk", FormatMsgpack, false},
		{"words.xml", FormatUnknown, true},
		{"words", FormatUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrUnknownFormat)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseText(t *testing.T) {
	input := "\ufeff# comment\n" +
		"net\tn. 网\r\n" +
		"\n" +
		"   \n" +
		"no delimiter here\n" +
		"\tmissing word\n" +
		"missing translation\t   \n" +
		"  apple \t 苹果 fruit \n" +
		"a\tb\tc\n"

	entries, stats, err := ParseText(context.Background(), strings.NewReader(input), "\t")
	require.NoError(t, err)

	assert.Equal(t, []model.Entry{
		{Word: "net", Translation: "n. 网"},
		{Word: "apple", Translation: "苹果 fruit"},
		{Word: "a", Translation: "b\tc"},
	}, entries)
	assert.Equal(t, 9, stats.Lines)
	assert.Equal(t, 3, stats.Entries)
	assert.Equal(t, 3, stats.Skipped)
}

func TestParseText_CustomDelimiter(t *testing.T) {
	entries, _, err := ParseText(context.Background(), strings.NewReader("net,网\nsubnet,子网\n"), ",")
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{{Word: "net", Translation: "网"}, {Word: "subnet", Translation: "子网"}}, entries)
}

func TestParseText_Empty(t *testing.T) {
	entries, stats, err := ParseText(context.Background(), strings.NewReader(""), "")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	assert.Equal(t, 0, stats.Lines)
}

func TestParseRecord_ReportsLine(t *testing.T) {
	_, err := parseRecord("word\t", "\t", 7)
	var mre *errors.MalformedRecordError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, 7, mre.Line)
	assert.Equal(t, "empty translation", mre.Reason)
}

func TestTextFile_LogsSkippedRecordsOnItsOwnLogger(t *testing.T) {
	var global, scoped bytes.Buffer
	prev := log.Default()
	log.SetDefault(log.NewWithOptions(&global, log.Options{Level: log.DebugLevel}))
	defer log.SetDefault(prev)

	path := writeFile(t, "words.tsv", "net\t网\nbroken\n\tno word\nsubnet\t子网\n")
	file := NewTextFile(path, "")
	file.logger = log.NewWithOptions(&scoped, log.Options{Level: log.DebugLevel, Prefix: "source"})

	entries, err := file.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	assert.Empty(t, global.String(), "records are not logged one by one on the default logger")
	assert.Contains(t, scoped.String(), "dropped malformed records")
	assert.Contains(t, scoped.String(), "skipped=2")
}

func TestTextFile_Missing(t *testing.T) {
	src := NewTextFile(filepath.Join(t.TempDir(), "missing.tsv"), "")
	_, err := src.LoadEntries(context.Background(), false)
	assert.True(t, errors.IsDataSource(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMsgpack_RoundTrip(t *testing.T) {
	entries := []model.Entry{
		{Word: "net", Translation: "n. 网"},
		{Word: "subnet", Translation: "子网"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteMsgpack(&buf, entries))

	path := writeFile(t, "words.msgpack", buf.String())
	got, err := NewMsgpackFile(path).LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestMsgpack_DropsMalformed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMsgpack(&buf, []model.Entry{
		{Word: "net", Translation: "网"},
		{Word: "  ", Translation: "blank word"},
		{Word: "orphan"},
	}))

	got, skipped, err := ReadMsgpack(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{{Word: "net", Translation: "网"}}, got)
	assert.Equal(t, 2, skipped)
}

func TestMsgpack_Corrupt(t *testing.T) {
	path := writeFile(t, "words.mpk", "definitely not msgpack")
	_, err := NewMsgpackFile(path).LoadEntries(context.Background(), false)
	assert.True(t, errors.IsDataSource(err))
}

func TestOpenAndConvert(t *testing.T) {
	textPath := writeFile(t, "words.tsv", "net\t网\nsubnet\t子网\n")

	src, err := Open(textPath, "")
	require.NoError(t, err)
	assert.IsType(t, &TextFile{}, src)
	assert.Equal(t, textPath, src.Path())

	dst := filepath.Join(t.TempDir(), "words.msgpack")
	n, err := Convert(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	converted, err := Open(dst, "")
	require.NoError(t, err)
	assert.IsType(t, &MsgpackFile{}, converted)

	entries, err := converted.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []model.Entry{{Word: "net", Translation: "网"}, {Word: "subnet", Translation: "子网"}}, entries)

	_, err = Open("words.json", "")
	assert.ErrorIs(t, err, errors.ErrUnknownFormat)
}

func TestMemory(t *testing.T) {
	mem := NewMemory(model.Entry{Word: "net", Translation: "网"})

	got, err := mem.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	got[0].Word = "mutated"

	again, err := mem.LoadEntries(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "net", again[0].Word, "callers get copies")

	mem.Fail(os.ErrPermission)
	_, err = mem.LoadEntries(context.Background(), false)
	assert.True(t, errors.IsDataSource(err))
	assert.ErrorIs(t, err, os.ErrPermission)

	mem.Set(nil)
	empty, err := mem.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, 4, mem.Calls())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = mem.LoadEntries(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}

// countingFile counts reads of the wrapped file and can hold them until released
type countingFile struct {
	File
	reads   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (c *countingFile) LoadEntries(ctx context.Context, force bool) ([]model.Entry, error) {
	c.reads.Add(1)
	if c.entered != nil {
		c.entered <- struct{}{}
		<-c.release
	}
	return c.File.LoadEntries(ctx, force)
}

func TestCached_MemoryThenForce(t *testing.T) {
	path := writeFile(t, "words.tsv", "net\t网\n")
	src := &countingFile{File: NewTextFile(path, "")}
	cached := NewCached(src, "")

	first, err := cached.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	second, err := cached.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.reads.Load())

	require.NoError(t, os.WriteFile(path, []byte("net\t网\nsubnet\t子网\n"), 0o600))

	stale, err := cached.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, stale, 1, "non-forced fetch serves the in-memory copy")

	fresh, err := cached.LoadEntries(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, int32(2), src.reads.Load())

	after, err := cached.LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, after, 2, "forced fetch replaces the in-memory copy")
}

func TestCached_Snapshot(t *testing.T) {
	path := writeFile(t, "words.tsv", "net\t网\nsubnet\t子网\n")
	snapPath := filepath.Join(t.TempDir(), "cache", "words.gob")

	warm := &countingFile{File: NewTextFile(path, "")}
	_, err := NewCached(warm, snapPath).LoadEntries(context.Background(), false)
	require.NoError(t, err)
	require.FileExists(t, snapPath)

	// A new process with an unchanged file reads the snapshot
	cold := &countingFile{File: NewTextFile(path, "")}
	entries, err := NewCached(cold, snapPath).LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int32(0), cold.reads.Load())

	// Changing the file invalidates the snapshot
	require.NoError(t, os.WriteFile(path, []byte("net\t网\n"), 0o600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	changed := &countingFile{File: NewTextFile(path, "")}
	entries, err = NewCached(changed, snapPath).LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, int32(1), changed.reads.Load())
}

func TestCached_CorruptSnapshotFallsBack(t *testing.T) {
	path := writeFile(t, "words.tsv", "net\t网\n")
	snapPath := filepath.Join(t.TempDir(), "words.gob")
	require.NoError(t, os.WriteFile(snapPath, []byte("garbage"), 0o600))

	src := &countingFile{File: NewTextFile(path, "")}
	entries, err := NewCached(src, snapPath).LoadEntries(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, int32(1), src.reads.Load())
}

func TestCached_MissingSource(t *testing.T) {
	cached := NewCached(NewTextFile(filepath.Join(t.TempDir(), "gone.tsv"), ""), "")
	_, err := cached.LoadEntries(context.Background(), false)
	assert.True(t, errors.IsDataSource(err))
}

func TestCached_ConcurrentFetchesShareOneRead(t *testing.T) {
	path := writeFile(t, "words.tsv", "net\t网\n")
	src := &countingFile{
		File:    NewTextFile(path, ""),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	cached := NewCached(src, "")

	var wg sync.WaitGroup
	results := make([][]model.Entry, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries, err := cached.LoadEntries(context.Background(), false)
			assert.NoError(t, err)
			results[i] = entries
		}(i)
	}

	<-src.entered
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.reads.Load())
	for _, r := range results {
		assert.Equal(t, []model.Entry{{Word: "net", Translation: "网"}}, r)
	}
}
