// Package query maps optional search filters onto the flat query-string
// parameters understood by the Crunchbase ODM endpoints.
//
// Every filter field is a pointer: nil means "not supplied" and the
// parameter is left out of the request entirely. Multi-value filters
// (locations, types, socials) are passed through as the caller joined them.
//
// Usage:
//
//	f := query.OrganizationFilter{}
//	f.SetLocations("California,San Francisco").SetOrganizationTypes(query.OrganizationTypeInvestor)
//	params := f.Params()
package query

import (
	"strconv"
	"time"
)

// Parameter names sent to the provider.
const (
	ParamUpdatedSince      = "updated_since"
	ParamQuery             = "query"
	ParamName              = "name"
	ParamDomainName        = "domain_name"
	ParamLocations         = "locations"
	ParamOrganizationTypes = "organization_types"
	ParamSortOrder         = "sort_order"
	ParamPage              = "page"
	ParamSocials           = "socials"
	ParamTypes             = "types"
)

// Sort orders accepted by both collections.
const (
	SortCreatedAtAsc  = "createdat ASC"
	SortCreatedAtDesc = "createdat DESC"
	SortUpdatedAtAsc  = "updatedat ASC"
	SortUpdatedAtDesc = "updatedat DESC"
)

// Organization types. Several may be joined with commas (AND'd by the provider).
const (
	OrganizationTypeCompany  = "company"
	OrganizationTypeInvestor = "investor"
	OrganizationTypeSchool   = "school"
	OrganizationTypeGroup    = "group"
)

// PeopleTypeInvestor is currently the only documented people type.
const PeopleTypeInvestor = "investor"

// Filter is implemented by every filter set.
type Filter interface {
	// Params returns only the supplied filters, stringified.
	Params() map[string]string
	// PinnedPage reports an explicitly requested page number.
	PinnedPage() (int, bool)
}

// Since converts t to the unix-seconds lower bound used by updated_since.
func Since(t time.Time) int64 {
	return t.Unix()
}

// OrganizationFilter holds the optional criteria of the organizations collection.
type OrganizationFilter struct {
	// Filter by updated_at >= the passed unix timestamp.
	UpdatedSince *int64
	// Full text search of an organization's name, aliases and short description.
	Query *string
	// Full text search limited to name and aliases.
	Name *string
	// Text search of an organization's domain_name.
	DomainName *string
	// Location names, comma separated, AND'd together.
	Locations *string
	// One or more of company, investor, school, group, comma separated.
	OrganizationTypes *string
	// One of the Sort* constants.
	SortOrder *string
	// Explicit page. Disables concurrent fetching of the whole collection.
	Page *int
}

func (f *OrganizationFilter) SetUpdatedSince(ts int64) *OrganizationFilter {
	f.UpdatedSince = &ts
	return f
}

func (f *OrganizationFilter) SetQuery(q string) *OrganizationFilter {
	f.Query = &q
	return f
}

func (f *OrganizationFilter) SetName(name string) *OrganizationFilter {
	f.Name = &name
	return f
}

func (f *OrganizationFilter) SetDomainName(domain string) *OrganizationFilter {
	f.DomainName = &domain
	return f
}

func (f *OrganizationFilter) SetLocations(locations string) *OrganizationFilter {
	f.Locations = &locations
	return f
}

func (f *OrganizationFilter) SetOrganizationTypes(types string) *OrganizationFilter {
	f.OrganizationTypes = &types
	return f
}

func (f *OrganizationFilter) SetSortOrder(order string) *OrganizationFilter {
	f.SortOrder = &order
	return f
}

func (f *OrganizationFilter) SetPage(page int) *OrganizationFilter {
	f.Page = &page
	return f
}

// Params implements Filter.
func (f OrganizationFilter) Params() map[string]string {
	p := make(map[string]string)
	putInt64(p, ParamUpdatedSince, f.UpdatedSince)
	putString(p, ParamQuery, f.Query)
	putString(p, ParamName, f.Name)
	putString(p, ParamDomainName, f.DomainName)
	putString(p, ParamLocations, f.Locations)
	putString(p, ParamOrganizationTypes, f.OrganizationTypes)
	putString(p, ParamSortOrder, f.SortOrder)
	putInt(p, ParamPage, f.Page)
	return p
}

// PinnedPage implements Filter.
func (f OrganizationFilter) PinnedPage() (int, bool) {
	if f.Page == nil {
		return 0, false
	}
	return *f.Page, true
}

// PeopleFilter holds the optional criteria of the people collection.
type PeopleFilter struct {
	// Full text search of name only.
	Name *string
	// Full text search of name, title, and company.
	Query *string
	// Filter by updated_at >= the passed unix timestamp.
	UpdatedSince *int64
	SortOrder    *string
	Page         *int
	// Location names, comma separated, AND'd together.
	Locations *string
	// Social media identities, comma separated, AND'd together.
	Socials *string
	// Either empty or "investor".
	Types *string
}

func (f *PeopleFilter) SetName(name string) *PeopleFilter {
	f.Name = &name
	return f
}

func (f *PeopleFilter) SetQuery(q string) *PeopleFilter {
	f.Query = &q
	return f
}

func (f *PeopleFilter) SetUpdatedSince(ts int64) *PeopleFilter {
	f.UpdatedSince = &ts
	return f
}

func (f *PeopleFilter) SetSortOrder(order string) *PeopleFilter {
	f.SortOrder = &order
	return f
}

func (f *PeopleFilter) SetPage(page int) *PeopleFilter {
	f.Page = &page
	return f
}

func (f *PeopleFilter) SetLocations(locations string) *PeopleFilter {
	f.Locations = &locations
	return f
}

func (f *PeopleFilter) SetSocials(socials string) *PeopleFilter {
	f.Socials = &socials
	return f
}

func (f *PeopleFilter) SetTypes(types string) *PeopleFilter {
	f.Types = &types
	return f
}

// Params implements Filter.
func (f PeopleFilter) Params() map[string]string {
	p := make(map[string]string)
	putString(p, ParamName, f.Name)
	putString(p, ParamQuery, f.Query)
	putInt64(p, ParamUpdatedSince, f.UpdatedSince)
	putString(p, ParamSortOrder, f.SortOrder)
	putInt(p, ParamPage, f.Page)
	putString(p, ParamLocations, f.Locations)
	putString(p, ParamSocials, f.Socials)
	putString(p, ParamTypes, f.Types)
	return p
}

// PinnedPage implements Filter.
func (f PeopleFilter) PinnedPage() (int, bool) {
	if f.Page == nil {
		return 0, false
	}
	return *f.Page, true
}

func putString(p map[string]string, key string, v *string) {
	if v != nil {
		p[key] = *v
	}
}

func putInt(p map[string]string, key string, v *int) {
	if v != nil {
		p[key] = strconv.Itoa(*v)
	}
}

func putInt64(p map[string]string, key string, v *int64) {
	if v != nil {
		p[key] = strconv.FormatInt(*v, 10)
	}
}
