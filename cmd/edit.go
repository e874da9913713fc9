package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var editUlog = grovelogging.NewUnifiedLogger("lilium.cmd.edit")

func NewEditCmd(svc **service.Service, owner *string) *cobra.Command {
	var (
		fromStdin bool
		abstract  string
	)

	cmd := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Edit a note's content",
		Long: `Replace a note's content. Content is read from stdin when piped,
otherwise the note is opened in $EDITOR.

Examples:
  lilium edit 9a2e...
  cat draft.md | lilium edit 9a2e...
  lilium edit 9a2e... --stdin --abstract "weekly summary" < draft.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := context.Background()

			// Auto-detect stdin if not explicitly set
			if !cmd.Flags().Changed("stdin") {
				stat, err := os.Stdin.Stat()
				if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
					fromStdin = true
				}
			}

			note, err := s.GetNote(ctx, *owner, args[0])
			if err != nil {
				return explain(err)
			}

			var content string
			if fromStdin {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(data)
			} else {
				content, err = editInEditor(note)
				if err != nil {
					return err
				}
			}

			var abs *string
			if cmd.Flags().Changed("abstract") {
				abs = &abstract
			}

			updated, err := s.UpdateNoteContent(ctx, *owner, note.ID, content, abs)
			if err != nil {
				return explain(err)
			}

			editUlog.Success("Note updated").
				Field("id", updated.ID).
				Field("path", updated.Path).
				Field("bytes", len(updated.Content)).
				Pretty(fmt.Sprintf("Saved %s", updated.Path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read content from stdin (auto-detected when piped)")
	cmd.Flags().StringVarP(&abstract, "abstract", "a", "", "Replace the note's abstract")

	return cmd
}

// editInEditor writes the note to a temp file named after it, opens $EDITOR
// and returns what was saved.
func editInEditor(note *models.Note) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	f, err := os.CreateTemp("", "lilium-*-"+note.FileName())
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(note.Content); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	c := exec.Command(editor, f.Name())
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("run editor %s: %w", editor, err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		return "", fmt.Errorf("read edited file: %w", err)
	}
	return string(data), nil
}
