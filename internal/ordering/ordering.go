// Package ordering maintains dense, 1-based positions over a flat list of
// children scoped to one parent. Sections under a course and lessons under a
// section share the same rules, so the helpers are generic over anything
// carrying an order index.
package ordering

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownID is returned when a reorder names an id that is not a
	// child of the parent being reordered.
	ErrUnknownID = errors.New("ordering: unknown item id")
	// ErrDuplicateID is returned when a reorder names the same child twice.
	ErrDuplicateID = errors.New("ordering: duplicate item id")
	// ErrIncomplete is returned when a reorder names only a subset of the
	// parent's children. Accepting a partial list would leave duplicate
	// positions behind, so it is rejected outright.
	ErrIncomplete = errors.New("ordering: not a complete permutation")
)

// Item is the minimal surface the helpers need from an ordered child.
type Item interface {
	ItemID() uint
	Position() int
	SetPosition(pos int)
}

// Next returns the position for an item appended after count existing
// siblings. Positions are 1-based.
func Next(count int64) int {
	return int(count) + 1
}

// CloseGap returns the siblings whose position must change after the child
// at removedPos has been deleted: everything above it shifts down by one.
// Siblings at or below removedPos are untouched. The returned slice holds
// the mutated items only, ready to be persisted.
func CloseGap[T Item](siblings []T, removedPos int) []T {
	shifted := make([]T, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.Position() > removedPos {
			sibling.SetPosition(sibling.Position() - 1)
			shifted = append(shifted, sibling)
		}
	}
	return shifted
}

// Apply assigns 1-based positions to children following the order of ids.
// The ids must be a complete permutation of the children: every id must name
// a current child, no id may repeat, and every child must be named.
func Apply[T Item](children []T, ids []uint) ([]T, error) {
	byID := make(map[uint]T, len(children))
	for _, child := range children {
		byID[child.ItemID()] = child
	}

	if len(ids) < len(children) {
		return nil, fmt.Errorf("%w: got %d of %d children", ErrIncomplete, len(ids), len(children))
	}

	seen := make(map[uint]struct{}, len(ids))
	result := make([]T, 0, len(ids))
	for i, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}

		child, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
		}
		child.SetPosition(i + 1)
		result = append(result, child)
	}

	return result, nil
}

// Contiguous reports whether positions form exactly {1..N}. Used by tests
// and sanity checks after renumbering.
func Contiguous[T Item](children []T) bool {
	seen := make(map[int]struct{}, len(children))
	for _, child := range children {
		pos := child.Position()
		if pos < 1 || pos > len(children) {
			return false
		}
		if _, dup := seen[pos]; dup {
			return false
		}
		seen[pos] = struct{}{}
	}
	return true
}
