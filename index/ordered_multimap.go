// Package index holds the ordered structures that back indexed lookups.
package index

import "cmp"

// nilNode marks an absent child handle.
const nilNode int32 = -1

// node is one tree node stored in the arena. Children are arena handles.
type node[K, V any] struct {
	key    K
	values []V
	left   int32
	right  int32
	height int32
}

// OrderedMultiMap is a height-balanced (AVL) ordered map from a key to a
// non-empty sequence of values. Inserting an existing key appends to its
// sequence instead of creating a second node.
//
// Nodes live in a slice and refer to each other by index, so rotations only
// rewrite handles. There is no deletion. The map is not safe for concurrent
// mutation; concurrent readers are fine once construction is complete.
type OrderedMultiMap[K, V any] struct {
	nodes []node[K, V]
	root  int32
	cmp   func(a, b K) int
}

// NewOrderedMultiMap creates an empty map ordered by compare, which must
// define a total order and return a negative, zero or positive result.
func NewOrderedMultiMap[K, V any](compare func(a, b K) int) *OrderedMultiMap[K, V] {
	return &OrderedMultiMap[K, V]{root: nilNode, cmp: compare}
}

// NewOrdered creates an empty map over a naturally ordered key type.
func NewOrdered[K cmp.Ordered, V any]() *OrderedMultiMap[K, V] {
	return NewOrderedMultiMap[K, V](cmp.Compare[K])
}

// Len returns the number of distinct keys.
func (m *OrderedMultiMap[K, V]) Len() int {
	return len(m.nodes)
}

// Height returns the height of the tree; an empty tree has height 0.
func (m *OrderedMultiMap[K, V]) Height() int {
	return int(m.height(m.root))
}

// Insert adds value under key, appending when the key is already present.
func (m *OrderedMultiMap[K, V]) Insert(key K, value V) {
	m.root = m.insert(m.root, key, value)
}

func (m *OrderedMultiMap[K, V]) insert(n int32, key K, value V) int32 {
	if n == nilNode {
		m.nodes = append(m.nodes, node[K, V]{
			key:    key,
			values: []V{value},
			left:   nilNode,
			right:  nilNode,
			height: 1,
		})
		return int32(len(m.nodes) - 1)
	}

	c := m.cmp(key, m.nodes[n].key)
	switch {
	case c < 0:
		child := m.insert(m.nodes[n].left, key, value)
		m.nodes[n].left = child
	case c > 0:
		child := m.insert(m.nodes[n].right, key, value)
		m.nodes[n].right = child
	default:
		m.nodes[n].values = append(m.nodes[n].values, value)
		return n
	}

	return m.rebalance(n)
}

// rebalance fixes height and balance of n after one of its subtrees grew and
// returns the handle of the subtree root that replaces it.
func (m *OrderedMultiMap[K, V]) rebalance(n int32) int32 {
	m.updateHeight(n)
	bf := m.balanceFactor(n)

	if bf > 1 {
		left := m.nodes[n].left
		if m.balanceFactor(left) < 0 {
			m.nodes[n].left = m.rotateLeft(left)
		}
		return m.rotateRight(n)
	}
	if bf < -1 {
		right := m.nodes[n].right
		if m.balanceFactor(right) > 0 {
			m.nodes[n].right = m.rotateRight(right)
		}
		return m.rotateLeft(n)
	}
	return n
}

// rotateRight lifts the left child of n into its place.
func (m *OrderedMultiMap[K, V]) rotateRight(n int32) int32 {
	pivot := m.nodes[n].left
	m.nodes[n].left = m.nodes[pivot].right
	m.nodes[pivot].right = n
	m.updateHeight(n)
	m.updateHeight(pivot)
	return pivot
}

// rotateLeft lifts the right child of n into its place.
func (m *OrderedMultiMap[K, V]) rotateLeft(n int32) int32 {
	pivot := m.nodes[n].right
	m.nodes[n].right = m.nodes[pivot].left
	m.nodes[pivot].left = n
	m.updateHeight(n)
	m.updateHeight(pivot)
	return pivot
}

func (m *OrderedMultiMap[K, V]) height(n int32) int32 {
	if n == nilNode {
		return 0
	}
	return m.nodes[n].height
}

func (m *OrderedMultiMap[K, V]) updateHeight(n int32) {
	m.nodes[n].height = 1 + max(m.height(m.nodes[n].left), m.height(m.nodes[n].right))
}

func (m *OrderedMultiMap[K, V]) balanceFactor(n int32) int32 {
	if n == nilNode {
		return 0
	}
	return m.height(m.nodes[n].left) - m.height(m.nodes[n].right)
}

// Get returns a copy of the values stored under key.
func (m *OrderedMultiMap[K, V]) Get(key K) ([]V, bool) {
	n := m.root
	for n != nilNode {
		c := m.cmp(key, m.nodes[n].key)
		switch {
		case c < 0:
			n = m.nodes[n].left
		case c > 0:
			n = m.nodes[n].right
		default:
			out := make([]V, len(m.nodes[n].values))
			copy(out, m.nodes[n].values)
			return out, true
		}
	}
	return nil, false
}

// ForEachInRange calls visit for every key in the closed interval [low, high]
// in ascending order. Subtrees that lie entirely outside the interval are not
// entered. If low sorts after high nothing is visited.
//
// The values slice passed to visit is owned by the map and must not be modified.
func (m *OrderedMultiMap[K, V]) ForEachInRange(low, high K, visit func(key K, values []V)) {
	if m.cmp(low, high) > 0 {
		return
	}
	m.walkRange(m.root, low, high, visit)
}

func (m *OrderedMultiMap[K, V]) walkRange(n int32, low, high K, visit func(key K, values []V)) {
	if n == nilNode {
		return
	}
	nd := &m.nodes[n]
	aboveLow := m.cmp(nd.key, low) > 0
	belowHigh := m.cmp(nd.key, high) < 0

	if aboveLow {
		m.walkRange(nd.left, low, high, visit)
	}
	if m.cmp(nd.key, low) >= 0 && m.cmp(nd.key, high) <= 0 {
		visit(nd.key, nd.values)
	}
	if belowHigh {
		m.walkRange(nd.right, low, high, visit)
	}
}
