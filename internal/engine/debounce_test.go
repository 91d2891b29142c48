package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-dictionary-lookup/internal/jobs"
	"github.com/gcbaptista/go-dictionary-lookup/model"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var ran []int
	for i := 1; i <= 5; i++ {
		i := i
		d.Trigger(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []int{5}, ran, "only the last call runs")
	mu.Unlock()
	assert.False(t, d.Pending())
}

func TestDebouncer_Flush(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var calls atomic.Int32
	assert.False(t, d.Flush(), "nothing pending")

	d.Trigger(func() { calls.Add(1) })
	assert.True(t, d.Pending())
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Flush())
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.False(t, d.Pending())
}

func TestTypeAhead_RecomputesOnceForLastQuery(t *testing.T) {
	qe, err := New(staticRepo(netEntries(), nil), Settings{
		DefaultStrategy: model.StrategyLinear,
		DebounceDelay:   20 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, qe.Load(context.Background()))

	ta := NewTypeAhead(qe)
	defer ta.Stop()

	for _, q := range []string{"s", "su", "sub", "subn", "subne"} {
		ta.Type(q)
	}
	assert.Equal(t, "subne", qe.Snapshot().Query, "the query is stored immediately")
	assert.Zero(t, qe.Snapshot().SearchSeq, "but not searched yet")

	require.Eventually(t, func() bool {
		return qe.Snapshot().SearchSeq == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	snap := qe.Snapshot()
	assert.Equal(t, uint64(1), snap.SearchSeq)
	assert.Equal(t, []string{"subnet"}, words(snap.Visible))
}

func TestInstance_AsyncLoadAndRefresh(t *testing.T) {
	manager := jobs.NewManager(2)
	manager.Start()
	defer manager.Stop()

	var calls atomic.Int32
	inst, err := NewInstance(staticRepo(netEntries(), &calls), Settings{Dataset: "words.tsv"}, manager)
	require.NoError(t, err)
	defer inst.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	loadID, err := inst.LoadAsync()
	require.NoError(t, err)
	job, err := manager.Wait(ctx, loadID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	assert.Equal(t, "4 entries available", job.Progress.Message)
	assert.Equal(t, 4, inst.Snapshot().TotalEntries)

	refreshID, err := inst.RefreshAsync()
	require.NoError(t, err)
	_, err = manager.Wait(ctx, refreshID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	assert.Len(t, inst.ListJobs(nil), 2)
	fetched, err := inst.GetJob(refreshID)
	require.NoError(t, err)
	assert.Equal(t, model.JobTypeRefresh, fetched.Type)
	assert.Equal(t, int64(2), inst.JobMetrics().JobsCompleted)
}

func TestInstance_FailedLoadJob(t *testing.T) {
	manager := jobs.NewManager(1)
	defer manager.Stop()

	inst, err := NewInstance(repoFunc(func(context.Context, bool) ([]model.Entry, error) {
		return nil, context.DeadlineExceeded
	}), Settings{}, manager)
	require.NoError(t, err)

	id, err := inst.LoadAsync()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job, err := manager.Wait(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "load dictionary")
	assert.Equal(t, LoadFailedMessage, inst.Snapshot().ErrorMessage)
}

func TestInstance_TypeAndFlush(t *testing.T) {
	manager := jobs.NewManager(1)
	defer manager.Stop()

	inst, err := NewInstance(staticRepo(netEntries(), nil), Settings{
		DefaultStrategy: model.StrategyIndexed,
		DebounceDelay:   time.Hour,
	}, manager)
	require.NoError(t, err)
	require.NoError(t, inst.Load(context.Background()))

	inst.Type("netw")
	assert.True(t, inst.FlushTyping())
	assert.Equal(t, []string{"network"}, words(inst.Snapshot().Visible))

	_, err = NewInstance(staticRepo(nil, nil), Settings{}, nil)
	assert.Error(t, err)
}
