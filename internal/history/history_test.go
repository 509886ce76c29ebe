package history

import (
	"context"
	"errors"
	"testing"
)

// logCommand appends its undo and redo calls to a shared log.
type logCommand struct {
	name string
	log  *[]string
	fail error
}

func (c *logCommand) Undo(context.Context) error {
	if c.fail != nil {
		return c.fail
	}
	*c.log = append(*c.log, "undo "+c.name)
	return nil
}

func (c *logCommand) Redo(context.Context) error {
	if c.fail != nil {
		return c.fail
	}
	*c.log = append(*c.log, "redo "+c.name)
	return nil
}

func (c *logCommand) Description() string {
	return c.name
}

func equalLog(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("log = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHistoryPushAndUndo(t *testing.T) {
	var log []string
	history := New(100)
	ctx := context.Background()

	history.Push(&logCommand{name: "a", log: &log})
	history.Push(&logCommand{name: "b", log: &log})

	if err := history.Undo(ctx); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if err := history.Redo(ctx); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	equalLog(t, log, "undo b", "redo b")

	if history.UndoCount() != 2 || history.RedoCount() != 0 {
		t.Errorf("counts = %d/%d, want 2/0", history.UndoCount(), history.RedoCount())
	}
}

func TestHistoryRedoClearedOnPush(t *testing.T) {
	var log []string
	history := New(100)

	history.Push(&logCommand{name: "a", log: &log})
	_ = history.Undo(context.Background())

	if !history.CanRedo() {
		t.Error("should be able to redo")
	}

	history.Push(&logCommand{name: "b", log: &log})

	if history.CanRedo() {
		t.Error("redo should be cleared after new command")
	}
}

func TestHistoryMaxEntries(t *testing.T) {
	var log []string
	history := New(3)

	for i := 0; i < 5; i++ {
		history.Push(&logCommand{name: "x", log: &log})
	}
	if history.UndoCount() != 3 {
		t.Errorf("undo count = %d, want 3", history.UndoCount())
	}

	history.SetMaxEntries(2)
	if history.UndoCount() != 2 || history.MaxEntries() != 2 {
		t.Errorf("after SetMaxEntries: count = %d, max = %d", history.UndoCount(), history.MaxEntries())
	}

	history.SetMaxEntries(0)
	if history.MaxEntries() != DefaultMaxEntries {
		t.Errorf("MaxEntries() = %d, want default", history.MaxEntries())
	}
}

func TestHistoryErrors(t *testing.T) {
	history := New(0)
	ctx := context.Background()

	if err := history.Undo(ctx); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
	if err := history.Redo(ctx); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
}

func TestHistoryFailedUndoKeepsEntry(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	history := New(100)
	cmd := &logCommand{name: "a", log: &log, fail: boom}
	history.Push(cmd)

	if err := history.Undo(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Undo() error = %v, want boom", err)
	}
	if history.UndoCount() != 1 || history.CanRedo() {
		t.Error("failed undo should leave the entry on the undo stack")
	}

	cmd.fail = nil
	_ = history.Undo(context.Background())
	cmd.fail = boom
	if err := history.Redo(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Redo() error = %v, want boom", err)
	}
	if history.RedoCount() != 1 {
		t.Error("failed redo should leave the entry on the redo stack")
	}
}

func TestHistoryGrouping(t *testing.T) {
	var log []string
	history := New(100)
	ctx := context.Background()

	history.BeginGroup("insert images")
	history.BeginGroup("ignored")
	history.Push(&logCommand{name: "a", log: &log})
	history.Push(&logCommand{name: "b", log: &log})
	if !history.IsGrouping() {
		t.Error("should be grouping")
	}
	history.EndGroup()

	if history.UndoCount() != 1 {
		t.Fatalf("undo count = %d, want 1", history.UndoCount())
	}
	if info, _ := history.PeekUndo(); info.Description != "insert images" {
		t.Errorf("PeekUndo() = %q", info.Description)
	}

	_ = history.Undo(ctx)
	_ = history.Redo(ctx)
	equalLog(t, log, "undo b", "undo a", "redo a", "redo b")
}

func TestHistoryEmptyGroup(t *testing.T) {
	history := New(100)
	history.BeginGroup("empty")
	history.EndGroup()

	if history.CanUndo() {
		t.Error("empty group should not push an entry")
	}
}

func TestHistoryTransaction(t *testing.T) {
	var log []string
	history := New(100)
	boom := errors.New("boom")

	err := history.Transaction("failing", func() error {
		history.Push(&logCommand{name: "a", log: &log})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Transaction() error = %v, want boom", err)
	}
	if history.CanUndo() || history.IsGrouping() {
		t.Error("failed transaction should leave no entry and no open group")
	}

	err = history.Transaction("ok", func() error {
		history.Push(&logCommand{name: "b", log: &log})
		return nil
	})
	if err != nil || history.UndoCount() != 1 {
		t.Errorf("Transaction() error = %v, count = %d", err, history.UndoCount())
	}
}

func TestHistoryInfo(t *testing.T) {
	var log []string
	history := New(100)

	if _, ok := history.PeekRedo(); ok {
		t.Error("PeekRedo() on empty history should report false")
	}

	history.Push(&logCommand{name: "a", log: &log})
	history.Push(&logCommand{name: "b", log: &log})
	_ = history.Undo(context.Background())

	undo := history.UndoInfo()
	if len(undo) != 1 || undo[0].Description != "a" || undo[0].Timestamp.IsZero() {
		t.Errorf("UndoInfo() = %+v", undo)
	}
	redo := history.RedoInfo()
	if len(redo) != 1 || redo[0].Description != "b" {
		t.Errorf("RedoInfo() = %+v", redo)
	}
	if info, ok := history.PeekRedo(); !ok || info.Description != "b" {
		t.Errorf("PeekRedo() = %+v, %v", info, ok)
	}

	history.Clear()
	if history.CanUndo() || history.CanRedo() {
		t.Error("Clear() should empty both stacks")
	}
}

func TestCompoundDescription(t *testing.T) {
	var log []string
	a := &logCommand{name: "a", log: &log}
	b := &logCommand{name: "b", log: &log}

	tests := []struct {
		c    *Compound
		want string
	}{
		{&Compound{Name: "named", Commands: []Command{a, b}}, "named"},
		{&Compound{Commands: []Command{a}}, "a"},
		{&Compound{Commands: []Command{a, b}}, "2 changes"},
	}
	for _, tt := range tests {
		if got := tt.c.Description(); got != tt.want {
			t.Errorf("Description() = %q, want %q", got, tt.want)
		}
	}
}
