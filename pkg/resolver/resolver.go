package resolver

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/skillforge/pkg/matrix"
)

// OptionState classifies the selectability of a skill option. Precedence is
// disabled > discouraged > recommended > normal; the highest applicable state
// wins.
type OptionState string

const (
	// StateNormal marks an option with no applicable relationship.
	StateNormal OptionState = "normal"
	// StateRecommended marks an advisory positive option.
	StateRecommended OptionState = "recommended"
	// StateDiscouraged marks a selectable but flagged option.
	StateDiscouraged OptionState = "discouraged"
	// StateDisabled marks a hard-blocked option.
	StateDisabled OptionState = "disabled"
)

// OptionView is the computed presentation of one skill option.
type OptionView struct {
	ID          string
	Label       string
	State       OptionState
	StateReason string
}

// CategoryView is the computed presentation of one category within a domain,
// including the framework-first lock flag.
type CategoryView struct {
	ID          string
	DisplayName string
	Locked      bool
	LockReason  string
	Options     []OptionView
}

// Options tunes option resolution.
type Options struct {
	// Domain applies framework-first gating for the given domain: once a
	// framework skill is selected, non-framework options are filtered by
	// their compatible_with allow-lists.
	Domain string
}

// Resolver evaluates selectability against an immutable matrix.
type Resolver struct {
	m *matrix.Matrix
}

// New creates a resolver over the given matrix.
func New(m *matrix.Matrix) *Resolver {
	return &Resolver{m: m}
}

// AvailableOptions computes the option views for a category given the
// current selections. Options are returned in the category's deterministic
// skill order. Unknown categories yield an empty list.
func (r *Resolver) AvailableOptions(categoryID string, sel *Selection, opts Options) []OptionView {
	skills := r.m.SkillsInCategory(categoryID)
	selected := sel.Set()

	frameworks := r.selectedFrameworks(opts.Domain, sel)
	filterByFramework := len(frameworks) > 0 && !r.isFrameworkCategory(opts.Domain, categoryID)

	views := make([]OptionView, 0, len(skills))
	for _, skill := range skills {
		if filterByFramework && !compatibleWithAny(skill, frameworks) {
			continue
		}
		views = append(views, r.optionView(skill, selected))
	}
	return views
}

// DomainCategories computes the category views of a domain, applying the
// framework-first gating: until a framework skill is chosen, every other
// category is visible but locked.
func (r *Resolver) DomainCategories(domainID string, sel *Selection) []CategoryView {
	domain, ok := r.m.Domain(domainID)
	if !ok {
		return nil
	}

	frameworks := r.selectedFrameworks(domainID, sel)
	gated := domain.FrameworkCategory != "" && len(frameworks) == 0

	var views []CategoryView
	for _, cat := range r.m.CategoriesInDomain(domainID) {
		view := CategoryView{
			ID:          cat.ID,
			DisplayName: cat.DisplayName,
			Options:     r.AvailableOptions(cat.ID, sel, Options{Domain: domainID}),
		}
		if gated && cat.ID != domain.FrameworkCategory {
			view.Locked = true
			view.LockReason = fmt.Sprintf("select a %s first", domain.FrameworkCategory)
		}
		views = append(views, view)
	}
	return views
}

// optionView applies the state precedence to a single skill.
func (r *Resolver) optionView(skill *matrix.Skill, selected map[string]bool) OptionView {
	view := OptionView{ID: skill.ID, Label: skill.Name, State: StateNormal}

	if reason, blocked := r.disabledReason(skill, selected); blocked {
		view.State = StateDisabled
		view.StateReason = reason
		return view
	}

	if reason, flagged := discouragedReason(skill, selected); flagged {
		view.State = StateDiscouraged
		view.StateReason = reason
		return view
	}

	if reason, positive := r.recommendedReason(skill, selected); positive {
		view.State = StateRecommended
		view.StateReason = reason
	}

	return view
}

// disabledReason reports a hard block: a conflict with an already-selected
// skill (in either direction) or an unsatisfied requires group.
func (r *Resolver) disabledReason(skill *matrix.Skill, selected map[string]bool) (string, bool) {
	for _, rel := range skill.ConflictsWith {
		if selected[rel.ID] {
			return conflictReason(rel), true
		}
	}

	// Conflict edges are authored on one side only; the selected skill may
	// carry the edge instead.
	for id := range selected {
		other, ok := r.m.Skill(id)
		if !ok {
			continue
		}
		for _, rel := range other.ConflictsWith {
			if rel.ID == skill.ID {
				return conflictReasonFrom(other.ID, rel), true
			}
		}
	}

	for _, group := range skill.Requires {
		if !group.Satisfied(selected) {
			return fmt.Sprintf("requires one of: %s", strings.Join(group.AnyOf, ", ")), true
		}
	}

	return "", false
}

func discouragedReason(skill *matrix.Skill, selected map[string]bool) (string, bool) {
	for _, rel := range skill.DiscouragedBy {
		if selected[rel.ID] {
			if rel.Reason != "" {
				return rel.Reason, true
			}
			return fmt.Sprintf("discouraged by %s", rel.ID), true
		}
	}
	for _, rel := range skill.Discourages {
		if selected[rel.ID] {
			if rel.Reason != "" {
				return rel.Reason, true
			}
			return fmt.Sprintf("discourages selected %s", rel.ID), true
		}
	}
	return "", false
}

func (r *Resolver) recommendedReason(skill *matrix.Skill, selected map[string]bool) (string, bool) {
	if skill.Recommended {
		return "", true
	}
	for _, rel := range skill.RecommendedBy {
		if selected[rel.ID] {
			if rel.Reason != "" {
				return rel.Reason, true
			}
			return fmt.Sprintf("recommended by %s", rel.ID), true
		}
	}
	return "", false
}

// selectedFrameworks returns the selected skill ids of the domain's
// framework category, or nil when the domain has no gating.
func (r *Resolver) selectedFrameworks(domainID string, sel *Selection) []string {
	if domainID == "" {
		return nil
	}
	domain, ok := r.m.Domain(domainID)
	if !ok || domain.FrameworkCategory == "" {
		return nil
	}
	return sel.Category(domainID, domain.FrameworkCategory)
}

func (r *Resolver) isFrameworkCategory(domainID, categoryID string) bool {
	if domainID == "" {
		return false
	}
	domain, ok := r.m.Domain(domainID)
	return ok && domain.FrameworkCategory == categoryID
}

// compatibleWithAny applies the compatible_with allow-list. An empty list is
// the escape hatch: the option is shown for every framework.
func compatibleWithAny(skill *matrix.Skill, frameworks []string) bool {
	if len(skill.CompatibleWith) == 0 {
		return true
	}
	for _, fw := range frameworks {
		for _, id := range skill.CompatibleWith {
			if id == fw {
				return true
			}
		}
	}
	return false
}

func conflictReason(rel matrix.Relation) string {
	if rel.Reason != "" {
		return rel.Reason
	}
	return fmt.Sprintf("conflicts with %s", rel.ID)
}

func conflictReasonFrom(ownerID string, rel matrix.Relation) string {
	if rel.Reason != "" {
		return rel.Reason
	}
	return fmt.Sprintf("conflicts with %s", ownerID)
}
