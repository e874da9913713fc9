package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var searchUlog = grovelogging.NewUnifiedLogger("lilium.cmd.search")

func NewSearchCmd(svc **service.Service, owner *string) *cobra.Command {
	var (
		under       string
		searchLimit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search notes",
		Long: `Search note titles, abstracts and content.

Examples:
  lilium search "authentication"
  lilium search todo --under 4f1c...   # only below a folder
  lilium search api -n 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			query := strings.Join(args, " ")

			var opts []service.SearchOption
			if under != "" {
				opts = append(opts, service.Under(under))
			}
			opts = append(opts, service.WithLimit(searchLimit))

			results, err := s.Search(context.Background(), *owner, query, opts...)
			if err != nil {
				return explain(err)
			}

			if len(results) == 0 {
				searchUlog.Info("No results found").
					Field("query", query).
					Pretty("No results found").
					PrettyOnly().
					Emit()
				return nil
			}

			searchUlog.Info("Search results").
				Field("query", query).
				Field("result_count", len(results)).
				Pretty(fmt.Sprintf("Found %d results:\n", len(results))).
				PrettyOnly().
				Emit()

			for i, r := range results {
				var prettyStr strings.Builder
				prettyStr.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Title))
				prettyStr.WriteString(fmt.Sprintf("   %s  (%s)", r.Path, r.ID))
				if r.Snippet != "" {
					prettyStr.WriteString(fmt.Sprintf("\n   %s", r.Snippet))
				}
				prettyStr.WriteString(fmt.Sprintf("\n   Modified: %s\n", r.UpdatedAt.Local().Format("2006-01-02 15:04")))

				searchUlog.Info("Search result").
					Field("index", i+1).
					Field("id", r.ID).
					Field("title", r.Title).
					Field("path", r.Path).
					Pretty(prettyStr.String()).
					PrettyOnly().
					Emit()
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&under, "under", "u", "", "Only search below this folder id")
	cmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results")

	return cmd
}
