package service

import (
	"sort"

	"wellbeing_dashboard/internal/model"
)

// ApplyFilter sets one filter and applies the cascade: a new branch clears
// class and section, a new class clears section. Setting a key to its
// current value changes nothing.
func ApplyFilter(current model.Filters, key model.FilterKey, value string) model.Filters {
	next := current
	if current.Get(key) == value {
		return next
	}
	switch key {
	case model.FilterBranch:
		next.BranchID = value
		next.ClassName = ""
		next.SectionName = ""
	case model.FilterClass:
		next.ClassName = value
		next.SectionName = ""
	case model.FilterSection:
		next.SectionName = value
	case model.FilterAssessment:
		next.AssessmentID = value
	case model.FilterSearch:
		next.SearchText = value
	case model.FilterPage:
		next.Page = value
	}
	return next
}

// AvailableSections lists the sorted, distinct sections of the selected
// class. Empty when no class is selected.
func AvailableSections(filters model.Filters, catalog []model.ClassEntry) []string {
	sections := []string{}
	if filters.ClassName == "" {
		return sections
	}
	seen := make(map[string]bool)
	for _, entry := range catalog {
		if entry.ClassName != filters.ClassName || entry.SectionName == "" || seen[entry.SectionName] {
			continue
		}
		seen[entry.SectionName] = true
		sections = append(sections, entry.SectionName)
	}
	sort.Strings(sections)
	return sections
}
