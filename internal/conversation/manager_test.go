package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAcquireCreatesAtNameStep(t *testing.T) {
	m := NewManager(time.Hour)

	state, created, release := m.Acquire("conv-1")
	if !created {
		t.Fatalf("created = false, want true for first message")
	}
	if state.Step != StepName {
		t.Fatalf("Step = %q, want %q", state.Step, StepName)
	}
	release()

	_, created, release = m.Acquire("conv-1")
	release()
	if created {
		t.Fatalf("created = true on second acquire")
	}
}

func TestAcquireSerializesSameConversation(t *testing.T) {
	m := NewManager(time.Hour)

	state, _, release := m.Acquire("conv-1")
	state.Step = StepAge

	var wg sync.WaitGroup
	wg.Add(1)
	entered := make(chan struct{})
	go func() {
		defer wg.Done()
		close(entered)
		s, _, rel := m.Acquire("conv-1")
		defer rel()
		if s.Step != StepSex {
			t.Errorf("second turn saw step %q, want %q", s.Step, StepSex)
		}
	}()

	<-entered
	// Give the goroutine a chance to block on the entry lock.
	time.Sleep(20 * time.Millisecond)
	state.Step = StepSex
	release()
	wg.Wait()
}

func TestResetStartsFresh(t *testing.T) {
	m := NewManager(time.Hour)

	state, _, release := m.Acquire("conv-1")
	state.Step = StepWorry
	state.Answers.Name = "Chen Wei"
	release()

	m.Reset("conv-1")

	state, created, release := m.Acquire("conv-1")
	defer release()
	if !created {
		t.Fatalf("created = false after reset")
	}
	if state.Step != StepName || state.Answers.Name != "" {
		t.Fatalf("state not fresh after reset: %+v", state)
	}
}

func TestSnapshotUnknownConversation(t *testing.T) {
	m := NewManager(time.Hour)
	if _, err := m.Snapshot("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Snapshot() error = %v, want ErrNotFound", err)
	}
}

func TestJanitorEvictsIdleConversations(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	_, _, release := m.Acquire("conv-1")
	release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	time.Sleep(90 * time.Millisecond)
	if _, err := m.Snapshot("conv-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("conversation not evicted, err = %v", err)
	}
}

func TestExpireHookRunsOnEviction(t *testing.T) {
	m := NewManager(30 * time.Millisecond)

	var mu sync.Mutex
	var evicted []string
	m.SetExpireHook(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		evicted = append(evicted, s.ID)
		// ActiveCount must be callable from the hook (no lock held), so a
		// gauge wired here always reflects the post-eviction count.
		_ = m.ActiveCount()
	})

	_, _, release := m.Acquire("conv-1")
	release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	time.Sleep(90 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(evicted) != 1 || evicted[0] != "conv-1" {
		t.Fatalf("evicted = %v, want [conv-1]", evicted)
	}
}

func TestStepNext(t *testing.T) {
	want := []Step{StepAge, StepSex, StepOperation, StepCFS, StepMedicalHistory, StepWorry, StepChat, StepChat}
	got := []Step{
		StepName.Next(), StepAge.Next(), StepSex.Next(), StepOperation.Next(),
		StepCFS.Next(), StepMedicalHistory.Next(), StepWorry.Next(), StepChat.Next(),
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Next[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
