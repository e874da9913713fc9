package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var renameUlog = grovelogging.NewUnifiedLogger("lilium.cmd.rename")

func NewRenameCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a folder or note",
		Long: `Rename a folder or note. Renaming a folder updates the path of
everything inside it.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			node, err := s.Rename(context.Background(), *owner, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return explain(err)
			}

			renameUlog.Success("Renamed").
				Field("id", node.ID).
				Field("kind", string(node.Kind)).
				Field("path", node.Path).
				Pretty(fmt.Sprintf("Renamed to %s", node.Path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}
