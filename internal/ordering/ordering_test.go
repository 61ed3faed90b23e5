package ordering

import (
	"errors"
	"testing"
)

type fakeItem struct {
	id  uint
	pos int
}

func (f *fakeItem) ItemID() uint        { return f.id }
func (f *fakeItem) Position() int       { return f.pos }
func (f *fakeItem) SetPosition(pos int) { f.pos = pos }

func items(positions ...int) []*fakeItem {
	result := make([]*fakeItem, 0, len(positions))
	for i, pos := range positions {
		result = append(result, &fakeItem{id: uint(i + 1), pos: pos})
	}
	return result
}

func TestNext(t *testing.T) {
	if got := Next(0); got != 1 {
		t.Fatalf("expected first position 1, got %d", got)
	}
	if got := Next(4); got != 5 {
		t.Fatalf("expected append position 5, got %d", got)
	}
}

func TestCloseGapShiftsHigherSiblings(t *testing.T) {
	// Children at 1,2,4,5 after the child at position 3 was deleted.
	siblings := items(1, 2, 4, 5)

	shifted := CloseGap(siblings, 3)

	if len(shifted) != 2 {
		t.Fatalf("expected 2 shifted siblings, got %d", len(shifted))
	}
	if siblings[2].pos != 3 || siblings[3].pos != 4 {
		t.Fatalf("expected positions 3 and 4, got %d and %d", siblings[2].pos, siblings[3].pos)
	}
	if siblings[0].pos != 1 || siblings[1].pos != 2 {
		t.Fatalf("siblings below the gap must not move")
	}
	if !Contiguous(siblings) {
		t.Fatalf("expected contiguous positions after gap close")
	}
}

func TestCloseGapLastChild(t *testing.T) {
	siblings := items(1, 2)

	shifted := CloseGap(siblings, 3)

	if len(shifted) != 0 {
		t.Fatalf("removing the last child must not shift anything, got %d", len(shifted))
	}
}

func TestApplyFullPermutation(t *testing.T) {
	children := items(1, 2, 3) // ids 1,2,3

	result, err := Apply(children, []uint{3, 1, 2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if result[0].id != 3 || result[0].pos != 1 {
		t.Fatalf("expected id 3 at position 1, got id %d pos %d", result[0].id, result[0].pos)
	}
	if result[1].id != 1 || result[1].pos != 2 {
		t.Fatalf("expected id 1 at position 2, got id %d pos %d", result[1].id, result[1].pos)
	}
	if result[2].id != 2 || result[2].pos != 3 {
		t.Fatalf("expected id 2 at position 3, got id %d pos %d", result[2].id, result[2].pos)
	}
	if !Contiguous(children) {
		t.Fatalf("expected contiguous positions after reorder")
	}
}

func TestApplyRejectsPartialList(t *testing.T) {
	children := items(1, 2, 3)

	if _, err := Apply(children, []uint{2, 1}); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
}

func TestApplyRejectsUnknownID(t *testing.T) {
	children := items(1, 2)

	if _, err := Apply(children, []uint{1, 99}); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestApplyRejectsDuplicateID(t *testing.T) {
	children := items(1, 2)

	if _, err := Apply(children, []uint{1, 1}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestContiguityUnderMixedOperations(t *testing.T) {
	children := items(1, 2, 3, 4, 5)

	// Reorder, remove the child now at position 2, then append.
	if _, err := Apply(children, []uint{5, 3, 1, 4, 2}); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}

	var removed *fakeItem
	remaining := make([]*fakeItem, 0, len(children)-1)
	for _, child := range children {
		if child.pos == 2 {
			removed = child
			continue
		}
		remaining = append(remaining, child)
	}
	if removed == nil {
		t.Fatalf("no child at position 2")
	}
	CloseGap(remaining, removed.pos)

	appended := &fakeItem{id: 6, pos: Next(int64(len(remaining)))}
	remaining = append(remaining, appended)

	if appended.pos != 5 {
		t.Fatalf("expected appended position 5, got %d", appended.pos)
	}
	if !Contiguous(remaining) {
		t.Fatalf("expected contiguous positions after reorder+remove+append")
	}
}
