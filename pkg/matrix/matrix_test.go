package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testSkill(id, category string) *Skill {
	return &Skill{
		ID:          id,
		Name:        id,
		Description: id + " description",
		Category:    category,
	}
}

func TestLookups(t *testing.T) {
	react := testSkill("web-framework-react", "web-framework")
	react.Alias = "react"
	vue := testSkill("web-framework-vue", "web-framework")
	testing_ := testSkill("web-testing-vitest", "web-testing")

	m := New(
		[]*Skill{react, vue, testing_},
		[]*Category{
			{ID: "web-framework", Domain: "web", Order: 1},
			{ID: "web-testing", Domain: "web", Order: 2},
			{ID: "api-language", Domain: "api", Order: 1},
		},
		[]*Domain{{ID: "web", Name: "Web"}, {ID: "api", Name: "API"}},
	)

	got, ok := m.Skill("web-framework-react")
	require.True(t, ok)
	assert.Equal(t, "web-framework-react", got.ID)

	_, ok = m.Skill("nope")
	assert.False(t, ok)

	cat, ok := m.Category("web-testing")
	require.True(t, ok)
	assert.Equal(t, "web", cat.Domain)

	dom, ok := m.Domain("api")
	require.True(t, ok)
	assert.Equal(t, "API", dom.Name)
}

func TestSkillsInCategorySorted(t *testing.T) {
	m := New(
		[]*Skill{
			testSkill("web-framework-vue", "web-framework"),
			testSkill("web-framework-react", "web-framework"),
		},
		[]*Category{{ID: "web-framework", Domain: "web"}},
		nil,
	)

	skills := m.SkillsInCategory("web-framework")
	require.Len(t, skills, 2)
	assert.Equal(t, "web-framework-react", skills[0].ID)
	assert.Equal(t, "web-framework-vue", skills[1].ID)

	assert.Empty(t, m.SkillsInCategory("unknown"))
}

func TestAliasToID(t *testing.T) {
	react := testSkill("web-framework-react", "web-framework")
	react.Alias = "react"
	m := New([]*Skill{react}, nil, nil)

	id, ok := m.AliasToID("react")
	require.True(t, ok)
	assert.Equal(t, "web-framework-react", id)

	// Canonical ids resolve to themselves.
	id, ok = m.AliasToID("web-framework-react")
	require.True(t, ok)
	assert.Equal(t, "web-framework-react", id)

	_, ok = m.AliasToID("angular")
	assert.False(t, ok)
}

func TestCategoriesDeclaredOrder(t *testing.T) {
	m := New(nil,
		[]*Category{
			{ID: "third", Order: 3},
			{ID: "first", Order: 1},
			{ID: "second", Order: 2},
		},
		nil,
	)

	var ids []string
	for _, c := range m.Categories() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestCategoriesInDomain(t *testing.T) {
	m := New(nil,
		[]*Category{
			{ID: "web-framework", Domain: "web", Order: 1},
			{ID: "api-language", Domain: "api", Order: 1},
			{ID: "web-styling", Domain: "web", Order: 2},
		},
		[]*Domain{{ID: "web"}, {ID: "api"}},
	)

	var ids []string
	for _, c := range m.CategoriesInDomain("web") {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"web-framework", "web-styling"}, ids)
}

func TestVerifySymmetry(t *testing.T) {
	tailwind := testSkill("web-styling-tailwind", "web-styling")
	inline := testSkill("web-styling-inline", "web-styling")

	tailwind.Discourages = []Relation{{ID: "web-styling-inline", Reason: "utility classes cover this"}}

	m := New([]*Skill{tailwind, inline}, nil, nil)
	err := m.VerifySymmetry()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no matching discouraged_by")

	inline.DiscouragedBy = []Relation{{ID: "web-styling-tailwind"}}
	m = New([]*Skill{tailwind, inline}, nil, nil)
	assert.NoError(t, m.VerifySymmetry())
}

func TestVerifySymmetryRecommends(t *testing.T) {
	react := testSkill("web-framework-react", "web-framework")
	vitest := testSkill("web-testing-vitest", "web-testing")

	react.Recommends = []Relation{{ID: "web-testing-vitest"}}

	m := New([]*Skill{react, vitest}, nil, nil)
	require.Error(t, m.VerifySymmetry())

	vitest.RecommendedBy = []Relation{{ID: "web-framework-react"}}
	m = New([]*Skill{react, vitest}, nil, nil)
	assert.NoError(t, m.VerifySymmetry())
}

func TestVerifySymmetrySkipsDanglingEdges(t *testing.T) {
	react := testSkill("web-framework-react", "web-framework")
	react.Discourages = []Relation{{ID: "not-in-library"}}

	m := New([]*Skill{react}, nil, nil)
	assert.NoError(t, m.VerifySymmetry())
}

func TestRequireGroupUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected [][]string
	}{
		{
			name:     "bare string shorthand",
			yaml:     `requires: ["web-framework-react"]`,
			expected: [][]string{{"web-framework-react"}},
		},
		{
			name:     "anyOf group",
			yaml:     `requires: [{anyOf: ["web-framework-react", "web-framework-vue"]}]`,
			expected: [][]string{{"web-framework-react", "web-framework-vue"}},
		},
		{
			name: "mixed groups are ANDed",
			yaml: `requires:
  - web-tooling-vite
  - anyOf: ["web-framework-react", "web-framework-vue"]`,
			expected: [][]string{{"web-tooling-vite"}, {"web-framework-react", "web-framework-vue"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var skill Skill
			require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &skill))
			require.Len(t, skill.Requires, len(tt.expected))
			for i, group := range tt.expected {
				assert.Equal(t, group, skill.Requires[i].AnyOf)
			}
		})
	}
}

func TestRequireGroupUnmarshalRejectsSequence(t *testing.T) {
	var skill Skill
	err := yaml.Unmarshal([]byte(`requires: [["nested", "list"]]`), &skill)
	assert.Error(t, err)
}

func TestRequireGroupSatisfied(t *testing.T) {
	group := RequireGroup{AnyOf: []string{"a", "b"}}

	assert.True(t, group.Satisfied(map[string]bool{"b": true}))
	assert.False(t, group.Satisfied(map[string]bool{"c": true}))
	assert.False(t, group.Satisfied(nil))
}

func TestDuplicateSkillIDKeepsFirst(t *testing.T) {
	first := testSkill("web-framework-react", "web-framework")
	first.Name = "first"
	second := testSkill("web-framework-react", "web-framework")
	second.Name = "second"

	m := New([]*Skill{first, second}, nil, nil)

	got, ok := m.Skill("web-framework-react")
	require.True(t, ok)
	assert.Equal(t, "first", got.Name)
}
