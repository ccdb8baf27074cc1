package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillforge/pkg/matrix"
)

func testSkill(id, category string) *matrix.Skill {
	return &matrix.Skill{
		ID:          id,
		Name:        id,
		Description: id + " description",
		Category:    category,
	}
}

// webMatrix builds a small web domain: an exclusive required framework
// category that gates the rest, a styling category filtered by
// compatible_with, and a testing category with relationship edges.
func webMatrix() *matrix.Matrix {
	react := testSkill("web-framework-react", "web-framework")
	react.Recommends = []matrix.Relation{{ID: "web-testing-vitest", Reason: "first-class react support"}}

	vue := testSkill("web-framework-vue", "web-framework")
	vue.ConflictsWith = []matrix.Relation{{ID: "web-framework-react", Reason: "one framework per project"}}

	tailwind := testSkill("web-styling-tailwind", "web-styling")
	tailwind.CompatibleWith = []string{"web-framework-react"}

	scoped := testSkill("web-styling-scoped", "web-styling")
	scoped.CompatibleWith = []string{"web-framework-vue"}

	plain := testSkill("web-styling-plain", "web-styling")

	vitest := testSkill("web-testing-vitest", "web-testing")
	vitest.RecommendedBy = []matrix.Relation{{ID: "web-framework-react", Reason: "first-class react support"}}

	jest := testSkill("web-testing-jest", "web-testing")
	jest.DiscouragedBy = []matrix.Relation{{ID: "web-framework-react", Reason: "slower than vitest for react"}}
	react.Discourages = []matrix.Relation{{ID: "web-testing-jest", Reason: "slower than vitest for react"}}

	e2e := testSkill("web-testing-playwright", "web-testing")
	e2e.Requires = []matrix.RequireGroup{{AnyOf: []string{"web-framework-react", "web-framework-vue"}}}

	return matrix.New(
		[]*matrix.Skill{react, vue, tailwind, scoped, plain, vitest, jest, e2e},
		[]*matrix.Category{
			{ID: "web-framework", DisplayName: "Framework", Domain: "web", Required: true, Exclusive: true, Order: 1},
			{ID: "web-styling", DisplayName: "Styling", Domain: "web", Order: 2},
			{ID: "web-testing", DisplayName: "Testing", Domain: "web", Order: 3},
		},
		[]*matrix.Domain{{ID: "web", Name: "Web", FrameworkCategory: "web-framework"}},
	)
}

func optionByID(t *testing.T, views []OptionView, id string) OptionView {
	t.Helper()
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("option %s not found in %v", id, views)
	return OptionView{}
}

func TestAvailableOptionsEmptySelection(t *testing.T) {
	r := New(webMatrix())
	sel := NewSelection()

	views := r.AvailableOptions("web-framework", sel, Options{Domain: "web"})
	require.Len(t, views, 2)

	for _, v := range views {
		assert.Equal(t, StateNormal, v.State, v.ID)
	}
}

func TestConflictDisablesBothDirections(t *testing.T) {
	r := New(webMatrix())

	// vue carries the conflict edge; selecting react must still disable vue.
	sel := NewSelection()
	sel.Add("web", "web-framework", "web-framework-react", true)

	views := r.AvailableOptions("web-framework", sel, Options{Domain: "web"})
	vue := optionByID(t, views, "web-framework-vue")
	assert.Equal(t, StateDisabled, vue.State)
	assert.Equal(t, "one framework per project", vue.StateReason)

	// And the reverse: selecting vue disables react through vue's edge.
	sel = NewSelection()
	sel.Add("web", "web-framework", "web-framework-vue", true)

	views = r.AvailableOptions("web-framework", sel, Options{Domain: "web"})
	react := optionByID(t, views, "web-framework-react")
	assert.Equal(t, StateDisabled, react.State)
}

func TestUnsatisfiedRequiresDisables(t *testing.T) {
	r := New(webMatrix())
	sel := NewSelection()

	views := r.AvailableOptions("web-testing", sel, Options{})
	e2e := optionByID(t, views, "web-testing-playwright")
	assert.Equal(t, StateDisabled, e2e.State)
	assert.Contains(t, e2e.StateReason, "requires one of")

	sel.Add("web", "web-framework", "web-framework-vue", true)
	views = r.AvailableOptions("web-testing", sel, Options{})
	e2e = optionByID(t, views, "web-testing-playwright")
	assert.NotEqual(t, StateDisabled, e2e.State)
}

func TestStatePrecedence(t *testing.T) {
	r := New(webMatrix())
	sel := NewSelection()
	sel.Add("web", "web-framework", "web-framework-react", true)

	views := r.AvailableOptions("web-testing", sel, Options{})

	vitest := optionByID(t, views, "web-testing-vitest")
	assert.Equal(t, StateRecommended, vitest.State)
	assert.Equal(t, "first-class react support", vitest.StateReason)

	jest := optionByID(t, views, "web-testing-jest")
	assert.Equal(t, StateDiscouraged, jest.State)
	assert.Equal(t, "slower than vitest for react", jest.StateReason)
}

func TestDiscouragedBeatsRecommended(t *testing.T) {
	a := testSkill("skill-a", "cat")
	b := testSkill("skill-b", "cat")
	b.Recommended = true
	b.DiscouragedBy = []matrix.Relation{{ID: "skill-a", Reason: "overlapping scope"}}
	a.Discourages = []matrix.Relation{{ID: "skill-b", Reason: "overlapping scope"}}

	m := matrix.New(
		[]*matrix.Skill{a, b},
		[]*matrix.Category{{ID: "cat", Domain: "d"}},
		[]*matrix.Domain{{ID: "d"}},
	)
	r := New(m)

	sel := NewSelection()
	sel.Add("d", "cat", "skill-a", false)

	views := r.AvailableOptions("cat", sel, Options{})
	got := optionByID(t, views, "skill-b")
	assert.Equal(t, StateDiscouraged, got.State)
}

func TestFrameworkGatingFiltersCompatibility(t *testing.T) {
	r := New(webMatrix())

	// Without a framework nothing is filtered.
	sel := NewSelection()
	views := r.AvailableOptions("web-styling", sel, Options{Domain: "web"})
	assert.Len(t, views, 3)

	// With react selected, vue-only styling disappears; the empty
	// compatible_with list stays visible for every framework.
	sel.Add("web", "web-framework", "web-framework-react", true)
	views = r.AvailableOptions("web-styling", sel, Options{Domain: "web"})

	var ids []string
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	assert.ElementsMatch(t, []string{"web-styling-tailwind", "web-styling-plain"}, ids)
}

func TestFrameworkCategoryNeverFiltersItself(t *testing.T) {
	r := New(webMatrix())
	sel := NewSelection()
	sel.Add("web", "web-framework", "web-framework-react", true)

	views := r.AvailableOptions("web-framework", sel, Options{Domain: "web"})
	assert.Len(t, views, 2)
}

func TestDomainCategoriesLockedUntilFrameworkChosen(t *testing.T) {
	r := New(webMatrix())
	sel := NewSelection()

	views := r.DomainCategories("web", sel)
	require.Len(t, views, 3)

	assert.False(t, views[0].Locked, "framework category itself is never locked")
	assert.True(t, views[1].Locked)
	assert.Contains(t, views[1].LockReason, "web-framework")
	assert.True(t, views[2].Locked)

	sel.Add("web", "web-framework", "web-framework-react", true)
	views = r.DomainCategories("web", sel)
	for _, v := range views {
		assert.False(t, v.Locked, v.ID)
	}
}

func TestDomainCategoriesUnknownDomain(t *testing.T) {
	r := New(webMatrix())
	assert.Nil(t, r.DomainCategories("mobile", NewSelection()))
}

func TestValidateRequiredCategoryDeclaredOrder(t *testing.T) {
	m := matrix.New(
		nil,
		[]*matrix.Category{
			{ID: "second", DisplayName: "Second", Domain: "d", Required: true, Order: 2},
			{ID: "first", DisplayName: "First", Domain: "d", Required: true, Order: 1},
		},
		[]*matrix.Domain{{ID: "d"}},
	)
	r := New(m)

	result := r.Validate(m.Categories(), NewSelection())
	assert.False(t, result.Valid)
	// Both categories are empty; declared order breaks the tie.
	assert.Equal(t, `category "First" requires a selection`, result.Message)
}

func TestValidateConflictsAndWarnings(t *testing.T) {
	m := webMatrix()
	r := New(m)

	sel := NewSelection()
	sel.Add("web", "web-framework", "web-framework-vue", false)
	sel.Add("web", "web-framework", "web-framework-react", false)
	sel.Add("web", "web-testing", "web-testing-jest", false)

	result := r.Validate(m.Categories(), sel)
	assert.False(t, result.Valid)

	require.NotEmpty(t, result.Errors)
	joined := ""
	for _, e := range result.Errors {
		joined += e + "\n"
	}
	assert.Contains(t, joined, "web-framework-vue conflicts with web-framework-react")

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "web-testing-jest is discouraged by web-framework-react")
}

func TestValidateCleanSelection(t *testing.T) {
	m := webMatrix()
	r := New(m)

	sel := NewSelection()
	sel.Add("web", "web-framework", "web-framework-react", true)
	sel.Add("web", "web-styling", "web-styling-tailwind", false)
	sel.Add("web", "web-testing", "web-testing-vitest", false)

	result := r.Validate(m.Categories(), sel)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateUnsatisfiedRequires(t *testing.T) {
	m := webMatrix()
	r := New(m)

	sel := NewSelection()
	sel.Add("web", "web-framework", "web-framework-react", true)
	sel.Add("web", "web-testing", "web-testing-playwright", false)

	// Satisfied: react is in the anyOf group.
	result := r.Validate(m.Categories(), sel)
	assert.True(t, result.Valid)

	sel = NewSelection()
	sel.Add("web", "web-testing", "web-testing-playwright", false)
	result = r.Validate(m.Categories(), sel)
	assert.False(t, result.Valid)
}
