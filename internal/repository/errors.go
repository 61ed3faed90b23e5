package repository

import "errors"

// ErrOrderingConflict is returned when a renumbering transaction loses the
// optimistic version check on its parent: another request rewrote the same
// child list between our read and our commit. Callers retry the whole
// read-renumber-write cycle.
var ErrOrderingConflict = errors.New("repository: concurrent ordering mutation")
