package resolver

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/skillforge/pkg/matrix"
)

// ValidationResult carries the outcome of a selection validation. Missing
// required categories and hard relationship violations populate Errors;
// advisory issues populate Warnings. Validation never aborts the run, the
// caller is expected to re-prompt.
type ValidationResult struct {
	Valid    bool
	Message  string
	Errors   []string
	Warnings []string
}

// Validate checks a selection against the given categories. The first
// required category in declared order lacking any selection produces the
// result message; the declared-order tie-break keeps error messages
// deterministic. Conflicts and unsatisfied requires among the selected
// skills are reported as errors, discouraged pairs as warnings.
func (r *Resolver) Validate(categories []*matrix.Category, sel *Selection) ValidationResult {
	result := ValidationResult{Valid: true}

	for _, cat := range categories {
		if cat.Required && len(sel.Category(cat.Domain, cat.ID)) == 0 {
			result.Valid = false
			result.Message = fmt.Sprintf("category %q requires a selection", cat.DisplayName)
			result.Errors = append(result.Errors, result.Message)
			break
		}
	}

	selected := sel.Set()
	for _, id := range sel.All() {
		skill, ok := r.m.Skill(id)
		if !ok {
			continue
		}

		for _, rel := range skill.ConflictsWith {
			if selected[rel.ID] {
				result.Valid = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s conflicts with %s: %s", skill.ID, rel.ID, conflictReason(rel)))
			}
		}

		for _, group := range skill.Requires {
			if !group.Satisfied(selected) {
				result.Valid = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s requires one of: %s", skill.ID, strings.Join(group.AnyOf, ", ")))
			}
		}

		for _, rel := range skill.DiscouragedBy {
			if selected[rel.ID] {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s is discouraged by %s: %s", skill.ID, rel.ID, rel.Reason))
			}
		}
	}

	return result
}
