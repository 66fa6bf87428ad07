package lifecycle

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vnykmshr/matflow/internal/testutil"
)

func TestTrackerForwardOnly(t *testing.T) {
	var tr Tracker
	testutil.AssertEqual(t, tr.Load(), Created)
	testutil.AssertEqual(t, tr.Accepting(), false)

	testutil.AssertEqual(t, tr.Advance(Accepting), true)
	testutil.AssertEqual(t, tr.Accepting(), true)

	testutil.AssertEqual(t, tr.Advance(Draining), true)
	testutil.AssertEqual(t, tr.Advance(Draining), false)
	testutil.AssertEqual(t, tr.Advance(Accepting), false)
	testutil.AssertEqual(t, tr.Load(), Draining)

	testutil.AssertEqual(t, tr.Advance(Terminated), true)
	testutil.AssertEqual(t, tr.Advance(Draining), false)
	testutil.AssertEqual(t, tr.Load(), Terminated)
}

func TestTrackerSkipsStates(t *testing.T) {
	var tr Tracker
	testutil.AssertEqual(t, tr.Advance(Terminated), true)
	testutil.AssertEqual(t, tr.Advance(Accepting), false)
}

func TestTrackerConcurrentAdvance(t *testing.T) {
	var tr Tracker
	tr.Advance(Accepting)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Advance(Draining) {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, atomic.LoadInt32(&wins), int32(1))
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Created:    "created",
		Accepting:  "accepting",
		Draining:   "draining",
		Terminated: "terminated",
		State(9):   "unknown",
	}
	for s, want := range tests {
		testutil.AssertEqual(t, s.String(), want)
	}
}
