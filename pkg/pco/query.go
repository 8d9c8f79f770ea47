package pco

import (
	"maps"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query parameter names understood by the API.
const (
	ParamPerPage = "per_page"
	ParamOffset  = "offset"
	ParamOrder   = "order"
	ParamInclude = "include"
	ParamWhere   = "where"
)

// Includes maps relationship names to the resource type that builds the
// related records.
type Includes map[string]*ResourceType

// Names returns the relationship names, sorted.
func (i Includes) Names() []string {
	names := make([]string, 0, len(i))
	for name := range i {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// WhereKey returns the query key of a filter on attr.
func WhereKey(attr string) string {
	return ParamWhere + "[" + attr + "]"
}

// query is the accumulated query state of a CollectionProxy.
type query struct {
	params   url.Values
	perPage  *int
	wheres   map[string]string
	order    []string
	includes Includes
	offset   *int
}

func newQuery(params url.Values) query {
	return query{
		params:   cloneValues(params),
		wheres:   map[string]string{},
		includes: Includes{},
	}
}

func (q *query) where(filters map[string]string) {
	maps.Copy(q.wheres, filters)
}

func (q *query) addOrder(keys ...string) {
	q.order = append(q.order, keys...)
}

func (q *query) include(mapping Includes) {
	maps.Copy(q.includes, mapping)
}

// values returns the parameters of a page request.
func (q *query) values() url.Values {
	values := cloneValues(q.params)

	if q.perPage != nil {
		values.Set(ParamPerPage, strconv.Itoa(*q.perPage))
	}

	for attr, value := range q.wheres {
		values.Set(WhereKey(attr), value)
	}

	if len(q.order) > 0 {
		values.Set(ParamOrder, strings.Join(q.order, ","))
	}

	if q.offset != nil {
		values.Set(ParamOffset, strconv.Itoa(*q.offset))
	}

	if len(q.includes) > 0 {
		values.Set(ParamInclude, strings.Join(q.includes.Names(), ","))
	}

	return values
}

// probeValues returns the parameters of the metadata-only request: page
// size zero and no includes.
func (q *query) probeValues() url.Values {
	values := q.values()
	values.Del(ParamInclude)
	values.Set(ParamPerPage, "0")

	return values
}

// findValues returns the parameters of a lookup by id: base parameters
// and includes only.
func (q *query) findValues() url.Values {
	values := cloneValues(q.params)

	if len(q.includes) > 0 {
		values.Set(ParamInclude, strings.Join(q.includes.Names(), ","))
	}

	return values
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vals := range values {
		out[key] = append([]string(nil), vals...)
	}

	return out
}
