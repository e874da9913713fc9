// Package tree assembles flat node listings into a nested structure and
// renders it the way the tree(1) command does.
package tree

import (
	"fmt"
	"io"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// Item represents a single node in the rendered tree.
type Item struct {
	Node *models.Node

	// Hierarchy
	Parent   *Item
	Children []*Item
}

// Name is the label shown for the item: the title for folders, the file
// name for notes.
func (it *Item) Name() string {
	if it.Node.IsFolder() {
		return it.Node.Title
	}
	return models.NoteFileName(it.Node.Title, it.Node.Syntax)
}

// Build nests nodes under their parents. Nodes whose parent is rootID ("" for
// the top level) become the returned roots; nodes whose parent is missing
// from the listing are dropped. Siblings are ordered folders first.
func Build(nodes []*models.Node, rootID string) []*Item {
	items := make(map[string]*Item, len(nodes))
	for _, n := range nodes {
		items[n.ID] = &Item{Node: n}
	}

	children := make(map[string][]*models.Node)
	for _, n := range nodes {
		children[n.ParentID] = append(children[n.ParentID], n)
	}

	var attach func(parent *Item, id string) []*Item
	attach = func(parent *Item, id string) []*Item {
		kids := children[id]
		models.SortNodes(kids)
		out := make([]*Item, 0, len(kids))
		for _, n := range kids {
			it := items[n.ID]
			it.Parent = parent
			if n.IsFolder() {
				it.Children = attach(it, n.ID)
			}
			out = append(out, it)
		}
		return out
	}
	return attach(nil, rootID)
}

// Render writes items as an indented tree. maxDepth limits how many levels
// are printed; zero or less prints everything.
func Render(w io.Writer, items []*Item, maxDepth int) error {
	return render(w, items, "", 1, maxDepth)
}

func render(w io.Writer, items []*Item, prefix string, depth, maxDepth int) error {
	for i, it := range items {
		branch, indent := "├── ", "│   "
		if i == len(items)-1 {
			branch, indent = "└── ", "    "
		}

		name := it.Name()
		if it.Node.IsFolder() {
			name += models.PathSeparator
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, name); err != nil {
			return err
		}

		if maxDepth > 0 && depth >= maxDepth {
			continue
		}
		if err := render(w, it.Children, prefix+indent, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
