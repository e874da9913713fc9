package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var ancestorsUlog = grovelogging.NewUnifiedLogger("lilium.cmd.ancestors")

func NewAncestorsCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ancestors <id>",
		Short: "List the folders above a node, root first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			chain, err := s.GetAncestorChain(context.Background(), *owner, args[0])
			if err != nil {
				return explain(err)
			}

			if len(chain) == 0 {
				ancestorsUlog.Info("No ancestors").
					Field("id", args[0]).
					Pretty("(root)").
					PrettyOnly().
					Emit()
				return nil
			}

			var b strings.Builder
			for i, f := range chain {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(fmt.Sprintf("%s%s  %s/", strings.Repeat("  ", i), f.ID, f.Path))
			}

			ancestorsUlog.Info("Ancestors").
				Field("id", args[0]).
				Field("count", len(chain)).
				Pretty(b.String()).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}
