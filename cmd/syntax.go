package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var syntaxUlog = grovelogging.NewUnifiedLogger("lilium.cmd.syntax")

func NewSyntaxCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syntax <note-id> <syntax>",
		Short: "Change a note's syntax",
		Long: `Change a note's syntax. The syntax is the note's file extension, so
"todo.md" becomes "todo.org" after 'lilium syntax <id> org'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			note, err := s.ChangeSyntax(context.Background(), *owner, args[0], args[1])
			if err != nil {
				return explain(err)
			}

			syntaxUlog.Success("Syntax changed").
				Field("id", note.ID).
				Field("syntax", note.Syntax).
				Field("path", note.Path).
				Pretty(fmt.Sprintf("Now %s", note.Path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}
