// Package categories serves the category vocabulary injected into the
// oracle prompt. The vocabulary lives in BigQuery and is re-read per
// interpretation; fixed fallback lists cover an empty registry section.
package categories

import "context"

// Group is one of the four vocabulary blocks the prompt carries.
type Group string

const (
	GroupIncome   Group = "income"
	GroupExpense  Group = "expense"
	GroupTransfer Group = "transfer"
	GroupCustody  Group = "custody"
)

// Category is one vocabulary entry.
type Category struct {
	Name  string
	Group Group
}

// Registry lists the active category vocabulary.
type Registry interface {
	ListActiveCategories(ctx context.Context) ([]Category, error)
}

// StaticRegistry serves a fixed list, used in tests.
type StaticRegistry struct {
	Categories []Category
}

func (r *StaticRegistry) ListActiveCategories(ctx context.Context) ([]Category, error) {
	return r.Categories, nil
}

// Fallbacks returns the fixed vocabulary used when the registry has no
// entries for a group.
func Fallbacks(g Group) []string {
	switch g {
	case GroupIncome:
		return []string{"مرتب", "مكافأة", "دخل إضافي", "أخرى"}
	case GroupExpense:
		return []string{"أكل وشرب", "مواصلات", "فواتير", "صحة", "تعليم", "ملابس", "أخرى"}
	case GroupTransfer:
		return []string{"تحويل عائلي", "تحويل بنكي", "أخرى"}
	case GroupCustody:
		return []string{"عهدة", "مصروف بيت", "أخرى"}
	}
	return nil
}

// Names filters a vocabulary down to one group's category names, falling
// back to the fixed list when the group is empty.
func Names(all []Category, g Group) []string {
	var out []string
	for _, c := range all {
		if c.Group == g {
			out = append(out, c.Name)
		}
	}
	if len(out) == 0 {
		return Fallbacks(g)
	}
	return out
}
