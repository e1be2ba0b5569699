package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/crunchbase-client/pkg/client"
	"github.com/Sternrassler/crunchbase-client/pkg/query"
	"github.com/Sternrassler/crunchbase-client/pkg/table"
)

func newOrganizationsCmd(a *app) *cobra.Command {
	var (
		out          outputFlags
		updatedSince int64
		q            string
		name         string
		domainName   string
		locations    string
		orgTypes     string
		sortOrder    string
		page         int
	)

	cmd := &cobra.Command{
		Use:     "organizations",
		Aliases: []string{"orgs"},
		Short:   "Fetch organizations matching the given filters",
		Example: `  cbapi organizations --locations "California,San Francisco" --types investor -w 5 -o investors.csv
  cbapi orgs --updated-since 1700000000 --format redis --redis-key crunchbase:orgs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f query.OrganizationFilter
			flags := cmd.Flags()
			if flags.Changed("updated-since") {
				f.SetUpdatedSince(updatedSince)
			}
			if flags.Changed("query") {
				f.SetQuery(q)
			}
			if flags.Changed("name") {
				f.SetName(name)
			}
			if flags.Changed("domain-name") {
				f.SetDomainName(domainName)
			}
			if flags.Changed("locations") {
				f.SetLocations(locations)
			}
			if flags.Changed("types") {
				f.SetOrganizationTypes(orgTypes)
			}
			if flags.Changed("sort-order") {
				f.SetSortOrder(sortOrder)
			}
			if flags.Changed("page") {
				f.SetPage(page)
			}

			return a.runCollection(cmd, &out, func(ctx context.Context, c *client.Client, opts ...client.FetchOption) (*table.Table, error) {
				return c.Organizations(ctx, f, opts...)
			})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&updatedSince, "updated-since", 0, "only records updated at or after this unix timestamp")
	f.StringVar(&q, "query", "", "full text search of name, aliases and short description")
	f.StringVar(&name, "name", "", "full text search of name and aliases")
	f.StringVar(&domainName, "domain-name", "", "text search of the domain name")
	f.StringVar(&locations, "locations", "", "comma separated location names")
	f.StringVar(&orgTypes, "types", "", "comma separated organization types: company, investor, school, group")
	f.StringVar(&sortOrder, "sort-order", "", `sort order, e.g. "updatedat DESC"`)
	f.IntVar(&page, "page", 0, "fetch only this page")
	out.register(cmd)

	return cmd
}
