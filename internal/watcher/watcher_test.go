package watcher

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/watchbind/watchbind/internal/env"
	"github.com/watchbind/watchbind/internal/subprocess"
)

func newTestWatcher(command string, interval time.Duration) *Watcher {
	return New(Config{
		Command:  command,
		Interval: interval,
		Runner:   subprocess.NewRunner(0),
		Env:      func() env.Snapshot { return env.New().Snapshot() },
	})
}

// runResultCmd executes a tea.Cmd expected to directly yield a ResultMsg
// (true whenever Interval == 0, since then no timer is armed and Start
// collapses to a single command).
func runResultCmd(t *testing.T, cmd tea.Cmd) ResultMsg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("cmd is nil")
	}
	msg := cmd()
	res, ok := msg.(ResultMsg)
	if !ok {
		t.Fatalf("expected ResultMsg, got %T: %v", msg, msg)
	}
	return res
}

func TestStartWithZeroIntervalRunsImmediately(t *testing.T) {
	w := newTestWatcher("echo hi", 0)
	res := runResultCmd(t, w.Start())
	if res.Err != nil {
		t.Fatalf("ResultMsg.Err = %v", res.Err)
	}
	if len(res.Buffer.Body) != 1 || res.Buffer.Body[0].Raw != "hi" {
		t.Fatalf("Buffer = %+v", res.Buffer)
	}
	if !w.Running() {
		t.Fatalf("Running() = false, want true until the ResultMsg is fed back through Update")
	}
}

func TestResultMsgChainsNextSpawnWhenIntervalZero(t *testing.T) {
	w := newTestWatcher("echo again", 0)
	runResultCmd(t, w.Start())

	cmd := w.Update(ResultMsg{epoch: w.epoch})
	res := runResultCmd(t, cmd)
	if res.Err != nil {
		t.Fatalf("ResultMsg.Err = %v", res.Err)
	}
	if len(res.Buffer.Body) != 1 || res.Buffer.Body[0].Raw != "again" {
		t.Fatalf("Buffer = %+v", res.Buffer)
	}
}

func TestFailedSpawnReportsErrorAndStaysRunningUntilUpdate(t *testing.T) {
	w := newTestWatcher("exit 1", 0)
	r := runResultCmd(t, w.Start())
	if r.Err == nil {
		t.Fatalf("expected error for non-zero exit")
	}
	if !w.Running() {
		t.Fatalf("Running() = false before the failed ResultMsg was fed back through Update")
	}
}

func TestUpdateResultMsgClearsRunningWithNonZeroInterval(t *testing.T) {
	w := newTestWatcher("echo hi", time.Hour)
	cmd := w.Start()

	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected tea.BatchMsg, got %T", cmd())
	}
	if len(batch) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(batch))
	}

	var got ResultMsg
	for _, c := range batch {
		if msg := c(); msg != nil {
			if r, ok := msg.(ResultMsg); ok {
				got = r
			}
		}
	}
	if got.Err != nil {
		t.Fatalf("ResultMsg.Err = %v", got.Err)
	}
	if !w.Running() {
		t.Fatalf("Running() = false, want true immediately after spawn and before Update(ResultMsg)")
	}

	w.Update(got)
	if w.Running() {
		t.Fatalf("Running() = true after Update(ResultMsg)")
	}
}

func TestStaleResultMsgIgnoredAfterReload(t *testing.T) {
	w := newTestWatcher("echo hi", time.Hour)
	w.Start()
	staleEpoch := w.epoch

	w.Reload() // cancels the in-flight child, spawns its replacement

	if w.cancel == nil {
		t.Fatalf("Reload() left cancel nil before any ResultMsg arrived")
	}
	if w.epoch == staleEpoch {
		t.Fatalf("Reload() did not advance the epoch")
	}

	w.Update(ResultMsg{epoch: staleEpoch})
	if w.cancel == nil {
		t.Fatalf("a stale ResultMsg cleared the replacement child's cancel")
	}

	w.Update(ResultMsg{epoch: w.epoch})
	if w.cancel != nil {
		t.Fatalf("the replacement's own ResultMsg should have cleared cancel")
	}
}

func TestTimeoutMsgSkipsOnOverlap(t *testing.T) {
	w := newTestWatcher("echo hi", time.Hour)
	w.running = true
	cmd := w.Update(timer.TimeoutMsg{})
	if cmd == nil {
		t.Fatalf("expected a rearm command even when overlapping")
	}
}
