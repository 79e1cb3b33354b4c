package graph

import (
	"fmt"
	"strings"
)

// fieldRe restricts filter fields to plain property names. Fields are rendered
// into Cypher text; values never are, they are always bound as parameters.
var fieldRe = labelRe

// MatchFilter accumulates optional node properties for a MATCH pattern and
// renders them as a parameterized map literal. Fields with nil values are
// omitted, never matched as null.
type MatchFilter struct {
	fields []string
	params map[string]any
}

// NewMatchFilter creates an empty filter.
func NewMatchFilter() *MatchFilter {
	return &MatchFilter{params: map[string]any{}}
}

// Set adds a property to the filter. Nil values (including typed nil pointers
// passed through Opt) are skipped. Invalid field names panic: fields are an
// enumerated set chosen by resolvers, never caller input.
func (f *MatchFilter) Set(field string, value any) *MatchFilter {
	if !fieldRe.MatchString(field) {
		panic(fmt.Sprintf("graph: invalid filter field %q", field))
	}
	if value == nil {
		return f
	}
	param := "filter_" + field
	if _, dup := f.params[param]; !dup {
		f.fields = append(f.fields, field)
	}
	f.params[param] = value
	return f
}

// SetString adds a property from an optional string, skipping nil.
func (f *MatchFilter) SetString(field string, value *string) *MatchFilter {
	if value == nil {
		return f
	}
	return f.Set(field, *value)
}

// Empty reports whether no fields were set.
func (f *MatchFilter) Empty() bool {
	return len(f.fields) == 0
}

// Fragment renders the filter as a map literal usable inside a node pattern,
// e.g. ` {id: $filter_id, slug: $filter_slug}`, with a leading space so it can
// be appended directly after a label. An empty filter renders as "".
func (f *MatchFilter) Fragment() string {
	if len(f.fields) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" {")
	for i, field := range f.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(field)
		b.WriteString(": $filter_")
		b.WriteString(field)
	}
	b.WriteString("}")
	return b.String()
}

// Params returns the bound parameters for the rendered fragment. The returned
// map is a copy and may be merged into a larger parameter set.
func (f *MatchFilter) Params() map[string]any {
	out := make(map[string]any, len(f.params))
	for k, v := range f.params {
		out[k] = v
	}
	return out
}
