package index

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants walks the whole tree and fails the test on any ordering,
// balance or height violation. It returns the number of reachable nodes.
func checkInvariants[K, V any](t *testing.T, m *OrderedMultiMap[K, V]) int {
	t.Helper()
	count := 0
	var walk func(n int32, low, high *K) int32
	walk = func(n int32, low, high *K) int32 {
		if n == nilNode {
			return 0
		}
		count++
		nd := m.nodes[n]
		if low != nil {
			require.Negative(t, m.cmp(*low, nd.key), "key must sort after every ancestor it descends right from")
		}
		if high != nil {
			require.Positive(t, m.cmp(*high, nd.key), "key must sort before every ancestor it descends left from")
		}
		require.NotEmpty(t, nd.values)

		lh := walk(nd.left, low, &nd.key)
		rh := walk(nd.right, &nd.key, high)
		require.LessOrEqual(t, abs(lh-rh), int32(1), "unbalanced node")
		require.Equal(t, 1+max(lh, rh), nd.height, "stale height")
		return nd.height
	}
	walk(m.root, nil, nil)
	return count
}

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestOrderedMultiMap_Empty(t *testing.T) {
	m := NewOrdered[int, string]()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Height())

	_, ok := m.Get(42)
	assert.False(t, ok)

	visited := 0
	m.ForEachInRange(0, 100, func(int, []string) { visited++ })
	assert.Zero(t, visited)
}

func TestOrderedMultiMap_RotationCases(t *testing.T) {
	tests := []struct {
		name     string
		keys     []int
		wantRoot int
	}{
		{name: "LL", keys: []int{3, 2, 1}, wantRoot: 2},
		{name: "RR", keys: []int{1, 2, 3}, wantRoot: 2},
		{name: "LR", keys: []int{3, 1, 2}, wantRoot: 2},
		{name: "RL", keys: []int{1, 3, 2}, wantRoot: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewOrdered[int, int]()
			for _, k := range tt.keys {
				m.Insert(k, k)
			}
			assert.Equal(t, tt.wantRoot, m.nodes[m.root].key)
			assert.Equal(t, 2, m.Height())
			assert.Equal(t, 3, checkInvariants(t, m))
		})
	}
}

func TestOrderedMultiMap_SequentialInsertStaysLogarithmic(t *testing.T) {
	m := NewOrdered[int, int]()
	for i := 0; i < 1023; i++ {
		m.Insert(i, i)
	}
	// A perfectly balanced tree of 1023 nodes has height 10; AVL guarantees < 1.45 log2(n+2).
	assert.LessOrEqual(t, m.Height(), 14)
	assert.Equal(t, 1023, checkInvariants(t, m))
}

func TestOrderedMultiMap_RandomInsertInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*31))
		m := NewOrdered[int, int]()
		distinct := map[int]struct{}{}

		for i := 0; i < 400; i++ {
			k := rng.IntN(250)
			m.Insert(k, i)
			distinct[k] = struct{}{}

			require.Equal(t, len(distinct), checkInvariants(t, m), "seed %d after insert %d", seed, i)
		}
		assert.Equal(t, len(distinct), m.Len())
	}
}

func TestOrderedMultiMap_DuplicateKeysAggregate(t *testing.T) {
	m := NewOrdered[string, string]()
	m.Insert("bank", "v1")
	m.Insert("river", "x")
	m.Insert("bank", "v2")
	m.Insert("bank", "v3")

	values, ok := m.Get("bank")
	require.True(t, ok)
	assert.Equal(t, []string{"v1", "v2", "v3"}, values)
	assert.Equal(t, 2, m.Len())
}

func TestOrderedMultiMap_GetReturnsCopy(t *testing.T) {
	m := NewOrdered[string, int]()
	m.Insert("a", 1)

	values, _ := m.Get("a")
	values[0] = 99

	again, _ := m.Get("a")
	assert.Equal(t, []int{1}, again)
}

func TestOrderedMultiMap_CustomComparator(t *testing.T) {
	// Reverse order comparator
	m := NewOrderedMultiMap[int, int](func(a, b int) int { return b - a })
	for _, k := range []int{5, 1, 9, 3, 7} {
		m.Insert(k, k)
	}
	checkInvariants(t, m)

	var keys []int
	m.ForEachInRange(9, 1, func(k int, _ []int) { keys = append(keys, k) })
	assert.Equal(t, []int{9, 7, 5, 3, 1}, keys)
}

func TestOrderedMultiMap_ForEachInRange(t *testing.T) {
	m := NewOrdered[int, int]()
	for _, k := range []int{50, 20, 80, 10, 30, 70, 90, 25, 35} {
		m.Insert(k, k*10)
	}

	tests := []struct {
		name      string
		low, high int
		want      []int
	}{
		{name: "inclusive bounds", low: 20, high: 35, want: []int{20, 25, 30, 35}},
		{name: "bounds between keys", low: 21, high: 69, want: []int{25, 30, 35, 50}},
		{name: "single key", low: 70, high: 70, want: []int{70}},
		{name: "whole tree", low: 0, high: 100, want: []int{10, 20, 25, 30, 35, 50, 70, 80, 90}},
		{name: "below everything", low: 0, high: 5, want: nil},
		{name: "inverted", low: 80, high: 20, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			m.ForEachInRange(tt.low, tt.high, func(k int, values []int) {
				assert.Equal(t, []int{k * 10}, values)
				got = append(got, k)
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderedMultiMap_RangeCompletenessRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	m := NewOrdered[int, int]()
	keySet := map[int]struct{}{}
	for i := 0; i < 500; i++ {
		k := rng.IntN(2000)
		m.Insert(k, i)
		keySet[k] = struct{}{}
	}
	sorted := make([]int, 0, len(keySet))
	for k := range keySet {
		sorted = append(sorted, k)
	}
	slices.Sort(sorted)

	for i := 0; i < 200; i++ {
		low := rng.IntN(2200) - 100
		high := rng.IntN(2200) - 100

		var want []int
		for _, k := range sorted {
			if low <= k && k <= high {
				want = append(want, k)
			}
		}

		var got []int
		m.ForEachInRange(low, high, func(k int, _ []int) { got = append(got, k) })
		require.Equal(t, want, got, "range [%d, %d]", low, high)
	}
}

func TestOrderedMultiMap_RangePrunesSubtrees(t *testing.T) {
	calls := 0
	m := NewOrderedMultiMap[int, int](func(a, b int) int {
		calls++
		return a - b
	})
	for i := 0; i < 4096; i++ {
		m.Insert(i, i)
	}

	calls = 0
	visited := 0
	m.ForEachInRange(100, 103, func(int, []int) { visited++ })

	assert.Equal(t, 4, visited)
	// A full traversal would compare against every node; a pruned walk stays near the tree height.
	assert.Less(t, calls, 200)
}

func TestOrderedMultiMap_StringKeysByteOrder(t *testing.T) {
	m := NewOrderedMultiMap[string, int](strings.Compare)
	for i, k := range []string{"net", "network", "ne", "nest", "net\xff", "neu", "苹果"} {
		m.Insert(k, i)
	}
	checkInvariants(t, m)

	var keys []string
	m.ForEachInRange("net", "net\xff", func(k string, _ []int) { keys = append(keys, k) })
	assert.Equal(t, []string{"net", "network", "net\xff"}, keys)
}
