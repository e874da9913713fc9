package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var mkdirUlog = grovelogging.NewUnifiedLogger("lilium.cmd.mkdir")

func NewMkdirCmd(svc **service.Service, owner *string) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "mkdir <title>",
		Short: "Create a folder",
		Long: `Create a folder at the root or inside another folder.

Examples:
  lilium mkdir Projects
  lilium mkdir "Q3 planning" --parent 4f1c...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			f, err := s.CreateFolder(context.Background(), *owner, strings.Join(args, " "), parentID)
			if err != nil {
				return explain(err)
			}

			mkdirUlog.Success("Folder created").
				Field("id", f.ID).
				Field("path", f.Path).
				Pretty(fmt.Sprintf("Created folder %s/ (%s)", f.Path, f.ID)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "Parent folder id (default: root)")

	return cmd
}
