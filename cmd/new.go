package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var newUlog = grovelogging.NewUnifiedLogger("lilium.cmd.new")

func NewNewCmd(svc **service.Service, owner *string) *cobra.Command {
	var (
		parentID  string
		syntax    string
		abstract  string
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a note",
		Long: `Create a note at the root or inside a folder.

Examples:
  lilium new todo                        # todo.md at the root
  lilium new plan --syntax org -p 4f1c...
  echo "- milk" | lilium new shopping    # content from stdin (auto-detected)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			// Auto-detect stdin if not explicitly set
			if !cmd.Flags().Changed("stdin") {
				stat, err := os.Stdin.Stat()
				if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
					fromStdin = true
				}
			}

			var content string
			if fromStdin {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(data)
			}

			note, err := s.CreateNote(context.Background(), *owner, models.NoteInput{
				Title:    strings.Join(args, " "),
				Abstract: abstract,
				Content:  content,
				Syntax:   syntax,
				ParentID: parentID,
			})
			if err != nil {
				return explain(err)
			}

			newUlog.Success("Note created").
				Field("id", note.ID).
				Field("path", note.Path).
				Field("syntax", note.Syntax).
				Pretty(fmt.Sprintf("Created: %s (%s)", note.Path, note.ID)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "Parent folder id (default: root)")
	cmd.Flags().StringVarP(&syntax, "syntax", "s", "", "Note syntax, used as the file extension (default from config)")
	cmd.Flags().StringVarP(&abstract, "abstract", "a", "", "Short summary of the note")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read content from stdin (auto-detected when piped)")

	return cmd
}
