package portal

import "errors"

// ErrDuplicateID is returned when registering an id that is still active,
// or appending a child id that already exists in the target scope. This is
// a caller programming error: it is surfaced immediately and never silently
// merged.
var ErrDuplicateID = errors.New("portal: duplicate portal id")

// ErrUnknownParent is returned when appending to an id that is not a
// currently-registered root scope. Children are never valid append targets,
// at any depth, and the registry never auto-creates a scope to paper over a
// mis-resolved parent.
var ErrUnknownParent = errors.New("portal: parent is not a registered root scope")
