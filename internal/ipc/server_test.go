package ipc

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gcbaptista/go-dictionary-lookup/internal/analytics"
	testutil "github.com/gcbaptista/go-dictionary-lookup/internal/testing"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

func encodeRequests(t *testing.T, msgs ...interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range msgs {
		data, err := msgpack.Marshal(m)
		require.NoError(t, err)
		buf.Write(data)
	}
	return &buf
}

func decodeResponses(t *testing.T, out *bytes.Buffer) []Response {
	t.Helper()
	dec := msgpack.NewDecoder(out)
	var responses []Response
	for {
		var resp Response
		err := dec.Decode(&resp)
		if stderrors.Is(err, io.EOF) {
			return responses
		}
		require.NoError(t, err)
		responses = append(responses, resp)
	}
}

func words(entries []model.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Word
	}
	return out
}

func serve(t *testing.T, in *bytes.Buffer) []Response {
	t.Helper()
	instance := testutil.CreateLoadedInstance(t)
	var out bytes.Buffer
	require.NoError(t, NewServer(instance, nil, in, &out).Serve(context.Background()))
	return decodeResponses(t, &out)
}

func TestServer_ReadyThenEOF(t *testing.T) {
	responses := serve(t, &bytes.Buffer{})
	require.Len(t, responses, 1)
	assert.Equal(t, "ready", responses[0].Status)
}

func TestServer_Actions(t *testing.T) {
	in := encodeRequests(t,
		Request{ID: "1", Action: ActionQuery, Query: "net"},
		Request{ID: "2", Action: ActionStrategy, Strategy: "linear"},
		Request{ID: "3", Action: ActionLookup, Query: "fruit", Strategy: "indexed"},
		Request{ID: "4", Action: ActionState},
		Request{ID: "5", Action: ActionStrategy, Strategy: "fuzzy"},
		Request{ID: "6", Action: "explode"},
		Request{ID: "7", Action: ActionPing},
	)

	responses := serve(t, in)
	require.Len(t, responses, 8)
	byID := make(map[string]Response)
	for _, r := range responses[1:] {
		byID[r.ID] = r
	}

	query := byID["1"]
	assert.Equal(t, []string{"net", "Net", "network"}, words(query.Entries))
	assert.Equal(t, 3, query.Count)
	assert.Equal(t, len(testutil.SampleEntries()), query.Total)
	assert.Equal(t, "indexed", query.Strategy)
	assert.Empty(t, query.Error)

	strategy := byID["2"]
	assert.Equal(t, "linear", strategy.Strategy)
	assert.Equal(t, []string{"net", "Net", "network", "subnet", "internet"}, words(strategy.Entries))

	lookup := byID["3"]
	assert.Empty(t, lookup.Entries, "indexed lookup ignores translations")
	assert.Equal(t, "indexed", lookup.Strategy)

	state := byID["4"]
	assert.Equal(t, "net", state.Query, "lookups do not change the interactive query")
	assert.Equal(t, "linear", state.Strategy)

	assert.Contains(t, byID["5"].Error, "unknown search strategy")
	assert.Contains(t, byID["6"].Error, "unknown action")
	assert.Equal(t, "ok", byID["7"].Status)
}

func TestServer_MalformedRequestIsReported(t *testing.T) {
	in := encodeRequests(t,
		42,
		Request{ID: "after", Action: ActionPing},
	)

	responses := serve(t, in)
	require.Len(t, responses, 3)
	assert.Equal(t, "malformed request", responses[1].Error)
	assert.Equal(t, "after", responses[2].ID)
	assert.Equal(t, "ok", responses[2].Status)
}

func TestServer_TypeIsDebounced(t *testing.T) {
	instance := testutil.CreateLoadedInstance(t)
	in := encodeRequests(t, Request{ID: "t", Action: ActionType, Query: "ban"})

	var out bytes.Buffer
	require.NoError(t, NewServer(instance, nil, in, &out).Serve(context.Background()))
	responses := decodeResponses(t, &out)
	require.Len(t, responses, 2)
	assert.Equal(t, "scheduled", responses[1].Status)
	assert.Equal(t, "ban", responses[1].Query)

	require.Eventually(t, func() bool {
		return words(instance.Snapshot().Visible)[0] == "banana"
	}, time.Second, 5*time.Millisecond)
}

func TestServer_RefreshAndLoadErrors(t *testing.T) {
	instance, repo := testutil.CreateTestInstance(t, testutil.SampleEntries()...)
	repo.Fail(assert.AnError)

	in := encodeRequests(t,
		Request{ID: "load", Action: ActionLoad},
		Request{ID: "state", Action: ActionState},
	)
	var out bytes.Buffer
	require.NoError(t, NewServer(instance, nil, in, &out).Serve(context.Background()))
	responses := decodeResponses(t, &out)
	require.Len(t, responses, 3)

	assert.Contains(t, responses[1].Error, "load dictionary")
	assert.Equal(t, "Failed to load dictionary.", responses[2].Error)
	assert.Zero(t, responses[2].Total)

	repo.Set([]model.Entry{{Word: "net", Translation: "网"}})
	in = encodeRequests(t, Request{ID: "refresh", Action: ActionRefresh})
	out.Reset()
	require.NoError(t, NewServer(instance, nil, in, &out).Serve(context.Background()))
	responses = decodeResponses(t, &out)
	require.Len(t, responses, 2)
	assert.Empty(t, responses[1].Error)
	assert.Equal(t, 1, responses[1].Total)
}

func TestServer_TracksLookups(t *testing.T) {
	instance := testutil.CreateLoadedInstance(t)
	tracker := analytics.NewService("")
	in := encodeRequests(t,
		Request{ID: "1", Action: ActionLookup, Query: "net"},
		Request{ID: "2", Action: ActionLookup, Query: ""},
	)

	var out bytes.Buffer
	require.NoError(t, NewServer(instance, tracker, in, &out).Serve(context.Background()))
	assert.Equal(t, 1, tracker.TotalSearches(), "the untimed default view is not tracked")
}

func TestServer_CancelledContext(t *testing.T) {
	instance := testutil.CreateLoadedInstance(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := NewServer(instance, nil, encodeRequests(t, Request{ID: "1", Action: ActionPing}), &out).Serve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
