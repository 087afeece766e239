package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tranvictor/ensprefs/prefs"
)

var (
	ErrSaveInProgress     = errors.New("a save is already in progress")
	ErrNoName             = errors.New("address has no ens name")
	ErrNothingToSave      = errors.New("nothing to save")
	ErrNotLoaded          = errors.New("no snapshot loaded")
	ErrSuperseded         = errors.New("superseded by a newer request")
	ErrClosed             = errors.New("controller closed")
	ErrIncompleteSnapshot = errors.New("snapshot is incomplete")
)

// IncompleteSnapshotError stops a full save from overwriting keys whose
// current value is unknown. Editing those keys or reloading clears it.
type IncompleteSnapshotError struct {
	Keys []prefs.Key
}

func (e *IncompleteSnapshotError) Error() string {
	names := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		names[i] = string(k)
	}
	return fmt.Sprintf("couldn't read %s, reload or set them explicitly", strings.Join(names, ", "))
}

func (e *IncompleteSnapshotError) Unwrap() error {
	return ErrIncompleteSnapshot
}
