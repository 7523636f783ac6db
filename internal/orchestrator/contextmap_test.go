package orchestrator

import (
	"testing"
	"time"

	"travelagency.app/bot/internal/model"
)

func TestContextMapWaitForNoDependencies(t *testing.T) {
	cm := newContextMap()
	done := make(chan struct{})

	ready, ok := cm.WaitFor(nil, done)
	if !ok {
		t.Fatal("WaitFor with no dependencies should succeed immediately")
	}
	if len(ready) != 0 {
		t.Fatalf("expected an empty ready set, got %d entries", len(ready))
	}
}

func TestContextMapWaitForAlreadySatisfied(t *testing.T) {
	cm := newContextMap()
	cm.Insert(model.Context{TaskID: "t1", Content: "done"})
	done := make(chan struct{})

	ready, ok := cm.WaitFor([]string{"t1"}, done)
	if !ok {
		t.Fatal("WaitFor should succeed when the dependency is already present")
	}
	if ready["t1"].Content != "done" {
		t.Fatalf("unexpected content: %q", ready["t1"].Content)
	}
}

func TestContextMapWaitForBlocksUntilInsert(t *testing.T) {
	cm := newContextMap()
	done := make(chan struct{})
	result := make(chan bool, 1)

	go func() {
		_, ok := cm.WaitFor([]string{"t1", "t2"}, done)
		result <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	cm.Insert(model.Context{TaskID: "t1", Content: "a"})
	time.Sleep(20 * time.Millisecond)
	cm.Insert(model.Context{TaskID: "t2", Content: "b"})

	select {
	case ok := <-result:
		if !ok {
			t.Fatal("WaitFor should have succeeded once both dependencies arrived")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not wake up after its dependencies were inserted")
	}
}

func TestContextMapWaitForInterruptedByDone(t *testing.T) {
	cm := newContextMap()
	done := make(chan struct{})
	result := make(chan bool, 1)

	go func() {
		_, ok := cm.WaitFor([]string{"never-arrives"}, done)
		result <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	close(done)

	select {
	case ok := <-result:
		if ok {
			t.Fatal("WaitFor should report failure once done fires")
		}
	case <-time.After(time.Second):
		t.Fatal("WaitFor did not unblock after done was closed")
	}
}

func TestContextMapSnapshotIsACopy(t *testing.T) {
	cm := newContextMap()
	cm.Insert(model.Context{TaskID: "t1", Content: "a"})

	snap := cm.Snapshot()
	snap["t1"] = model.Context{TaskID: "t1", Content: "mutated"}

	if cm.data["t1"].Content != "a" {
		t.Fatal("mutating a snapshot must not affect the underlying map")
	}
}
