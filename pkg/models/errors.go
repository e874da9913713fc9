package models

import (
	"errors"
	"fmt"
)

// Sentinel values for errors.Is matching. The typed errors below carry the
// details and report Is() against these.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrCyclicMove          = errors.New("cyclic move")
	ErrAmbiguousConversion = errors.New("ambiguous conversion")
	ErrInvalidIndexTitle   = errors.New("invalid index title")
	ErrCacheInconsistency  = errors.New("path cache inconsistency")
	ErrInvalidTitle        = errors.New("invalid title")
)

// NotFoundError means an id does not resolve for the current owner.
type NotFoundError struct {
	Kind NodeKind // empty when the kind was not known
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("node %s not found", e.ID)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateNameError is a sibling uniqueness violation.
type DuplicateNameError struct {
	Kind     NodeKind
	ParentID string
	Title    string
	Syntax   string
}

func (e *DuplicateNameError) Error() string {
	if e.Kind == KindNote {
		return fmt.Sprintf("a note named %q already exists here", NoteFileName(e.Title, e.Syntax))
	}
	return fmt.Sprintf("a folder named %q already exists here", e.Title)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// CyclicMoveError rejects a move that would make a folder its own ancestor.
type CyclicMoveError struct {
	NodeID      string
	NewParentID string
}

func (e *CyclicMoveError) Error() string {
	if e.NodeID == e.NewParentID {
		return fmt.Sprintf("cannot move %s into itself", e.NodeID)
	}
	return fmt.Sprintf("cannot move %s under its own descendant %s", e.NodeID, e.NewParentID)
}

func (e *CyclicMoveError) Is(target error) bool { return target == ErrCyclicMove }

// AmbiguousConversionError means a folder holds more than a single index note.
type AmbiguousConversionError struct {
	FolderID string
	Folders  int
	Notes    int
}

func (e *AmbiguousConversionError) Error() string {
	return fmt.Sprintf("folder %s cannot become a note: it holds %d folders and %d notes", e.FolderID, e.Folders, e.Notes)
}

func (e *AmbiguousConversionError) Is(target error) bool { return target == ErrAmbiguousConversion }

// InvalidIndexTitleError means a folder's only note is not titled IndexTitle.
type InvalidIndexTitleError struct {
	FolderID string
	Title    string
}

func (e *InvalidIndexTitleError) Error() string {
	return fmt.Sprintf("folder %s cannot become a note: its only note is %q, expected %q", e.FolderID, e.Title, IndexTitle)
}

func (e *InvalidIndexTitleError) Is(target error) bool { return target == ErrInvalidIndexTitle }

// CacheInconsistencyError reports a cached path that disagrees with the tree.
type CacheInconsistencyError struct {
	NodeID   string
	Kind     NodeKind
	Cached   string
	Expected string
	Reason   string
}

func (e *CacheInconsistencyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("path cache: %s %s: %s", e.Kind, e.NodeID, e.Reason)
	}
	return fmt.Sprintf("path cache: %s %s is %q, expected %q", e.Kind, e.NodeID, e.Cached, e.Expected)
}

func (e *CacheInconsistencyError) Is(target error) bool { return target == ErrCacheInconsistency }

// InvalidTitleError rejects a title or syntax that cannot appear in a path.
type InvalidTitleError struct {
	Title  string
	Reason string
}

func (e *InvalidTitleError) Error() string {
	return fmt.Sprintf("invalid title %q: %s", e.Title, e.Reason)
}

func (e *InvalidTitleError) Is(target error) bool { return target == ErrInvalidTitle }
