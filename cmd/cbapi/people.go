package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/crunchbase-client/pkg/client"
	"github.com/Sternrassler/crunchbase-client/pkg/query"
	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

func newPeopleCmd(a *app) *cobra.Command {
	var (
		out          outputFlags
		name         string
		q            string
		updatedSince int64
		sortOrder    string
		page         int
		locations    string
		socials      string
		types        string
	)

	cmd := &cobra.Command{
		Use:     "people",
		Short:   "Fetch people matching the given filters",
		Example: `  cbapi people --types investor --locations Berlin -f json -o investors.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f query.PeopleFilter
			flags := cmd.Flags()
			if flags.Changed("name") {
				f.SetName(name)
			}
			if flags.Changed("query") {
				f.SetQuery(q)
			}
			if flags.Changed("updated-since") {
				f.SetUpdatedSince(updatedSince)
			}
			if flags.Changed("sort-order") {
				f.SetSortOrder(sortOrder)
			}
			if flags.Changed("page") {
				f.SetPage(page)
			}
			if flags.Changed("locations") {
				f.SetLocations(locations)
			}
			if flags.Changed("socials") {
				f.SetSocials(socials)
			}
			if flags.Changed("types") {
				f.SetTypes(types)
			}

			return a.runCollection(cmd, &out, func(ctx context.Context, c *client.Client, opts ...client.FetchOption) (*table.Table, error) {
				return c.People(ctx, f, opts...)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "full text search of name")
	f.StringVar(&q, "query", "", "full text search of name, title and company")
	f.Int64Var(&updatedSince, "updated-since", 0, "only records updated at or after this unix timestamp")
	f.StringVar(&sortOrder, "sort-order", "", `sort order, e.g. "createdat ASC"`)
	f.IntVar(&page, "page", 0, "fetch only this page")
	f.StringVar(&locations, "locations", "", "comma separated location names")
	f.StringVar(&socials, "socials", "", "comma separated social media identities")
	f.StringVar(&types, "types", "", `person type, currently only "investor"`)
	out.register(cmd)

	return cmd
}
