/*
Package ipc serves the dictionary over stdin/stdout as a stream of msgpack messages.

Each request is one msgpack map; each produces exactly one response map with
the same id. There is no framing beyond msgpack itself. Logs go to stderr so
stdout carries only protocol messages.

	{"id": "1", "a": "query", "q": "net"}
	{"id": "1", "e": [{"w": "net", "t": "n. 网"}], "c": 1, "n": 4, "t": 12, "s": "indexed", "q": "net"}

Actions:

	query     set the query and recompute now
	type      set the query and recompute after the debounce delay
	strategy  switch to strategy "s" and recompute
	lookup    stateless lookup of "q" with strategy "s" (default: current)
	load      load the dataset if not loaded yet
	refresh   re-fetch the dataset bypassing caches
	state     return the current state
	ping      liveness check

Times are in microseconds. A failed request carries "err" and no entries.
*/
package ipc

import "github.com/gcbaptista/go-dictionary-lookup/model"

// Action names
const (
	ActionQuery    = "query"
	ActionType     = "type"
	ActionStrategy = "strategy"
	ActionLookup   = "lookup"
	ActionLoad     = "load"
	ActionRefresh  = "refresh"
	ActionState    = "state"
	ActionPing     = "ping"
)

// Request is one client message
type Request struct {
	ID       string `msgpack:"id"`
	Action   string `msgpack:"a"`
	Query    string `msgpack:"q,omitempty"`
	Strategy string `msgpack:"s,omitempty"`
}

// Response answers one Request. Entries reuse model.Entry's {w, t} encoding.
type Response struct {
	ID        string        `msgpack:"id"`
	Entries   []model.Entry `msgpack:"e,omitempty"`
	Count     int           `msgpack:"c"`
	Total     int           `msgpack:"n"`
	TimeTaken int64         `msgpack:"t"`
	Strategy  string        `msgpack:"s,omitempty"`
	Query     string        `msgpack:"q,omitempty"`
	Loading   bool          `msgpack:"l,omitempty"`
	Status    string        `msgpack:"status,omitempty"`
	Error     string        `msgpack:"err,omitempty"`
}
