// Package env implements the process-scoped environment table shared by every
// subprocess watchbind spawns: the watched command, blocking/background execs,
// and set-env/unset-env operations all read and write through this table.
package env

import "sync"

// Snapshot is an immutable view of the table taken at a single instant.
// Subprocess spawns merge a Snapshot with os.Environ() so a spawn always sees
// a consistent view, never a torn write.
type Snapshot map[string]string

// Table is an ordered, copy-on-write map of environment variable names to
// values. Construct one with New: the zero value has no map, and Set on it
// panics. Table is safe for concurrent Get
// and Snapshot calls; Set and Unset are expected to be called only from the
// single EventLoop goroutine (the spec's single-writer discipline), but the
// mutex is still held for Get/Snapshot since subprocess goroutines read
// concurrently with that writer.
type Table struct {
	mu     sync.RWMutex
	order  []string
	values map[string]string
}

// New returns an empty Table.
func New() *Table {
	return &Table{values: make(map[string]string)}
}

// Get returns the current value for name and whether it is set.
func (t *Table) Get(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[name]
	return v, ok
}

// Set assigns value to name, appending name to the iteration order if it is
// new. Overwriting an existing name keeps its original position.
func (t *Table) Set(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.values[name]; !exists {
		t.order = append(t.order, name)
	}
	t.values[name] = value
}

// Unset removes name from the table. A no-op if name was never set.
func (t *Table) Unset(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.values[name]; !exists {
		return
	}
	delete(t.values, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns a copy-on-write view of the table safe to hand to a
// subprocess spawn. The copy is cheap relative to spawn latency at the table
// sizes watchbind sees (a handful of user-set variables).
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(Snapshot, len(t.order))
	for _, n := range t.order {
		out[n] = t.values[n]
	}
	return out
}

// WithLineVars returns a copy of snap with "line" and "lines" merged in,
// overriding any user-set variables of the same name. This is the spec's
// §4.7 rule 7 contract: every spawned command sees $line/$lines.
func (s Snapshot) WithLineVars(line, lines string) Snapshot {
	out := make(Snapshot, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	out["line"] = line
	out["lines"] = lines
	return out
}
