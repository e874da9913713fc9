package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var pathUlog = grovelogging.NewUnifiedLogger("lilium.cmd.path")

func NewPathCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path <id>",
		Short: "Print the full path of a folder or note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			path, err := s.GetPath(context.Background(), *owner, args[0])
			if err != nil {
				return explain(err)
			}

			pathUlog.Info("Path").
				Field("id", args[0]).
				Field("path", path).
				Pretty(path).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}

var resolveUlog = grovelogging.NewUnifiedLogger("lilium.cmd.resolve")

func NewResolveCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Find the folder or note at a path",
		Long: `Find the folder or note at a path. Note segments include the syntax
extension; when a folder and a note share a path the folder is returned.

Examples:
  lilium resolve Projects/lilium/todo.md
  lilium resolve Projects/lilium`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			path := strings.Join(args, " ")

			node, err := s.ResolvePath(context.Background(), *owner, path)
			if err != nil {
				return explain(err)
			}

			resolveUlog.Info("Resolved").
				Field("path", path).
				Field("id", node.ID).
				Field("kind", string(node.Kind)).
				Pretty(nodeLine(node)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}
