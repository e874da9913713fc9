package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// explain turns domain errors into messages that say what to do next.
// Anything else is returned unchanged.
func explain(err error) error {
	if err == nil {
		return nil
	}

	var (
		notFound   *models.NotFoundError
		duplicate  *models.DuplicateNameError
		cyclic     *models.CyclicMoveError
		ambiguous  *models.AmbiguousConversionError
		indexTitle *models.InvalidIndexTitleError
		invalid    *models.InvalidTitleError
		cache      *models.CacheInconsistencyError
	)

	switch {
	case errors.As(err, &notFound):
		return fmt.Errorf("%w (check the id with 'lilium ls' or 'lilium find')", err)
	case errors.As(err, &duplicate):
		return fmt.Errorf("%w; choose another title or move the existing one first", err)
	case errors.As(err, &cyclic):
		return fmt.Errorf("%w; a folder cannot be moved into itself or one of its sub-folders", err)
	case errors.As(err, &ambiguous):
		return fmt.Errorf("%w; move its contents out until only an 'index' note is left", err)
	case errors.As(err, &indexTitle):
		return fmt.Errorf("%w; rename the note to %q first", err, models.IndexTitle)
	case errors.As(err, &invalid):
		return err
	case errors.As(err, &cache):
		return fmt.Errorf("%w; run 'lilium rebuild' to recompute paths", err)
	}
	return err
}

// nodeLine renders one node for listings: kind marker, id, path.
func nodeLine(n *models.Node) string {
	if n.IsFolder() {
		return fmt.Sprintf("d  %s  %s/", n.ID, n.Path)
	}
	return fmt.Sprintf("-  %s  %s", n.ID, n.Path)
}

func nodeLines(nodes []*models.Node) string {
	lines := make([]string, len(nodes))
	for i, n := range nodes {
		lines[i] = nodeLine(n)
	}
	return strings.Join(lines, "\n")
}
