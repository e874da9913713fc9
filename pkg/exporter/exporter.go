// Package exporter mirrors a tree onto the filesystem and back. Folders
// become directories and notes become files named by their path segment,
// carrying their metadata as YAML frontmatter.
package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanGreenup/lilium-sub000/pkg/frontmatter"
	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// Source lists an owner's tree with cached paths.
type Source interface {
	ListFolders(ctx context.Context, owner string) ([]*models.Folder, error)
	ListNotes(ctx context.Context, owner string) ([]*models.Note, error)
}

// Creator builds nodes during an import.
type Creator interface {
	CreateFolder(ctx context.Context, owner, title, parentID string) (*models.Folder, error)
	CreateNote(ctx context.Context, owner string, in models.NoteInput) (*models.Note, error)
}

// Result counts what an export or import touched.
type Result struct {
	Folders int
	Notes   int
	Skipped []string
}

// Export writes the owner's whole tree below dir.
func Export(ctx context.Context, src Source, owner, dir string) (*Result, error) {
	folders, err := src.ListFolders(ctx, owner)
	if err != nil {
		return nil, err
	}
	notes, err := src.ListNotes(ctx, owner)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	res := &Result{}
	for _, f := range folders {
		if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(f.Path)), 0755); err != nil {
			return res, fmt.Errorf("export folder %s: %w", f.Path, err)
		}
		res.Folders++
	}

	for _, n := range notes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := filepath.Join(dir, filepath.FromSlash(n.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return res, fmt.Errorf("export note %s: %w", n.Path, err)
		}
		content := frontmatter.BuildContent(frontmatter.FromNote(n), n.Content)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return res, fmt.Errorf("export note %s: %w", n.Path, err)
		}
		res.Notes++
	}
	return res, nil
}

// Import recreates the directory tree at dir under parentID ("" for the
// root). Hidden entries and files without an extension are skipped. Import
// is not atomic: on error, the nodes created so far remain.
func Import(ctx context.Context, dst Creator, owner, dir, parentID string) (*Result, error) {
	res := &Result{}
	if err := importDir(ctx, dst, owner, dir, parentID, res); err != nil {
		return res, err
	}
	return res, nil
}

func importDir(ctx context.Context, dst Creator, owner, dir, parentID string, res *Result) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		path := filepath.Join(dir, name)
		if strings.HasPrefix(name, ".") {
			res.Skipped = append(res.Skipped, path)
			continue
		}

		if entry.IsDir() {
			f, err := dst.CreateFolder(ctx, owner, name, parentID)
			if err != nil {
				return fmt.Errorf("import folder %s: %w", path, err)
			}
			res.Folders++
			if err := importDir(ctx, dst, owner, path, f.ID, res); err != nil {
				return err
			}
			continue
		}

		ext := filepath.Ext(name)
		if ext == "" || ext == name || !entry.Type().IsRegular() {
			res.Skipped = append(res.Skipped, path)
			continue
		}

		if err := importNote(ctx, dst, owner, path, strings.TrimSuffix(name, ext), ext[1:], parentID); err != nil {
			return err
		}
		res.Notes++
	}
	return nil
}

func importNote(ctx context.Context, dst Creator, owner, path, title, syntax, parentID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	fm, body, err := frontmatter.Parse(string(data))
	if err != nil {
		return fmt.Errorf("import note %s: %w", path, err)
	}

	in := models.NoteInput{
		Title:    title,
		Content:  body,
		Syntax:   syntax,
		ParentID: parentID,
	}
	if fm != nil {
		in.Abstract = fm.Abstract
	}

	if _, err := dst.CreateNote(ctx, owner, in); err != nil {
		return fmt.Errorf("import note %s: %w", path, err)
	}
	return nil
}
