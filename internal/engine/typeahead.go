package engine

// TypeAhead couples SetQuery with a debounced Recompute, so a burst of
// keystrokes results in one search for the last query.
type TypeAhead struct {
	engine    *QueryEngine
	debouncer *Debouncer
}

// NewTypeAhead uses the engine's configured debounce delay
func NewTypeAhead(engine *QueryEngine) *TypeAhead {
	return &TypeAhead{
		engine:    engine,
		debouncer: NewDebouncer(engine.Settings().DebounceDelay),
	}
}

// Type records the query now and schedules the recompute.
func (t *TypeAhead) Type(query string) {
	t.engine.SetQuery(query)
	t.debouncer.Trigger(t.engine.Recompute)
}

// Flush runs a scheduled recompute now. It reports whether one was pending.
func (t *TypeAhead) Flush() bool {
	return t.debouncer.Flush()
}

// Stop drops a scheduled recompute
func (t *TypeAhead) Stop() {
	t.debouncer.Stop()
}
