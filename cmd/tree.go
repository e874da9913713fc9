package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
	"github.com/RyanGreenup/lilium-sub000/pkg/tree"
)

var treeUlog = grovelogging.NewUnifiedLogger("lilium.cmd.tree")

func NewTreeCmd(svc **service.Service, owner *string) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree [folder-id]",
		Short: "Draw the tree below a folder, or the whole tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := context.Background()

			var folderID string
			header := "."
			if len(args) == 1 {
				folderID = args[0]
				path, err := s.GetPath(ctx, *owner, folderID)
				if err != nil {
					return explain(err)
				}
				header = path + "/"
			}

			items, err := s.Tree(ctx, *owner, folderID)
			if err != nil {
				return explain(err)
			}

			var b strings.Builder
			b.WriteString(header + "\n")
			if err := tree.Render(&b, items, depth); err != nil {
				return err
			}

			treeUlog.Info("Tree").
				Field("folder_id", folderID).
				Field("depth", depth).
				Pretty(strings.TrimRight(b.String(), "\n")).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "L", 0, "Maximum depth to draw (0 for no limit)")

	return cmd
}
