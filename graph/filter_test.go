package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func TestMatchFilterEmpty(t *testing.T) {
	f := NewMatchFilter()

	assert.True(t, f.Empty())
	assert.Equal(t, "", f.Fragment())
	assert.Empty(t, f.Params())
}

func TestMatchFilterRendersBoundParams(t *testing.T) {
	f := NewMatchFilter().
		Set("id", "grp_1").
		Set("slug", "freedom-riders")

	assert.Equal(t, " {id: $filter_id, slug: $filter_slug}", f.Fragment())
	assert.Equal(t, map[string]any{
		"filter_id":   "grp_1",
		"filter_slug": "freedom-riders",
	}, f.Params())
}

func TestMatchFilterSkipsNil(t *testing.T) {
	f := NewMatchFilter().
		SetString("id", nil).
		SetString("slug", strPtr("freedom-riders")).
		Set("groupType", nil)

	assert.Equal(t, " {slug: $filter_slug}", f.Fragment())
	assert.Equal(t, map[string]any{"filter_slug": "freedom-riders"}, f.Params())
}

func TestMatchFilterFieldOrderIsInsertion(t *testing.T) {
	f := NewMatchFilter().
		Set("slug", "s").
		Set("id", "i")

	assert.Equal(t, " {slug: $filter_slug, id: $filter_id}", f.Fragment())
}

func TestMatchFilterDuplicateFieldKeepsLastValue(t *testing.T) {
	f := NewMatchFilter().
		Set("id", "first").
		Set("id", "second")

	assert.Equal(t, " {id: $filter_id}", f.Fragment())
	assert.Equal(t, "second", f.Params()["filter_id"])
}

// Field names render into query text, so anything outside the whitelist is a
// programming error, not an input error.
func TestMatchFilterPanicsOnInvalidField(t *testing.T) {
	assert.Panics(t, func() {
		NewMatchFilter().Set("id: $x} MATCH (n)", "v")
	})
}

func TestMatchFilterParamsIsACopy(t *testing.T) {
	f := NewMatchFilter().Set("id", "grp_1")

	params := f.Params()
	params["injected"] = true

	assert.Equal(t, map[string]any{"filter_id": "grp_1"}, f.Params())
}

func TestLabelValid(t *testing.T) {
	assert.True(t, LabelGroup.Valid())
	assert.True(t, LabelUser.Valid())
	assert.False(t, Label("").Valid())
	assert.False(t, Label("Group) DETACH DELETE n //").Valid())
	assert.False(t, Label("1Group").Valid())
}
