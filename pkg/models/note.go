package models

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// NodeKind distinguishes the two kinds of tree node
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindNote   NodeKind = "note"
)

const (
	// IndexTitle is the reserved title of a folder's landing note.
	IndexTitle = "index"

	// DefaultSyntax is used when a note is created without an explicit syntax.
	DefaultSyntax = "md"

	// PathSeparator joins titles in a full path.
	PathSeparator = "/"
)

// Folder is a container node. ParentID is empty for root folders.
type Folder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ParentID  string    `json:"parent_id,omitempty"`
	Owner     string    `json:"owner"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Note is a leaf node carrying content. ParentID is empty for root notes.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract,omitempty"`
	Content   string    `json:"content,omitempty"`
	Syntax    string    `json:"syntax"`
	ParentID  string    `json:"parent_id,omitempty"`
	Owner     string    `json:"owner"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileName is the rendered name of the note inside its folder, e.g. "todo.md".
func (n *Note) FileName() string {
	return NoteFileName(n.Title, n.Syntax)
}

// NoteInput carries the caller-supplied fields for a new note
type NoteInput struct {
	Title    string
	Abstract string
	Content  string
	Syntax   string
	ParentID string
}

// Node is the kind-agnostic view of a folder or note returned by tree queries.
type Node struct {
	ID        string    `json:"id"`
	Kind      NodeKind  `json:"kind"`
	Title     string    `json:"title"`
	Syntax    string    `json:"syntax,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFolder reports whether the node is a folder
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// FolderNode converts a folder into its node view
func FolderNode(f *Folder) *Node {
	return &Node{
		ID:        f.ID,
		Kind:      KindFolder,
		Title:     f.Title,
		ParentID:  f.ParentID,
		Path:      f.Path,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// NoteNode converts a note into its node view
func NoteNode(n *Note) *Node {
	return &Node{
		ID:        n.ID,
		Kind:      KindNote,
		Title:     n.Title,
		Syntax:    n.Syntax,
		ParentID:  n.ParentID,
		Path:      n.Path,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// PathEntry is one materialized row of the path cache
type PathEntry struct {
	NodeID   string   `json:"node_id"`
	Kind     NodeKind `json:"kind"`
	Owner    string   `json:"owner"`
	FullPath string   `json:"full_path"`
}

// HistoryEntry records one committed mutation in the bounded history log
type HistoryEntry struct {
	ID         int64     `json:"id"`
	Owner      string    `json:"owner"`
	Op         string    `json:"op"`
	NodeID     string    `json:"node_id"`
	Kind       NodeKind  `json:"kind"`
	BeforePath string    `json:"before_path,omitempty"`
	AfterPath  string    `json:"after_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewID returns a random 128-bit identifier encoded as 32 hex characters.
func NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
