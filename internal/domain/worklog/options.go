package worklog

import "sort"

// OptionField enumerates the descriptive fields whose distinct values are
// offered as input suggestions. A typed enum instead of string field keys
// keeps extraction exhaustive and compile-checked.
type OptionField int

const (
	FieldWorkName OptionField = iota
	FieldDealName
	FieldTaskName
	FieldCategoryName
	FieldProjectCode
)

// Value extracts the field from a record.
func (f OptionField) Value(r WorkRecord) string {
	switch f {
	case FieldWorkName:
		return r.WorkName
	case FieldDealName:
		return r.DealName
	case FieldTaskName:
		return r.TaskName
	case FieldCategoryName:
		return r.CategoryName
	case FieldProjectCode:
		return r.ProjectCode
	default:
		return ""
	}
}

// ParseOptionField maps a wire name onto the enum.
func ParseOptionField(name string) (OptionField, bool) {
	switch name {
	case "work_name":
		return FieldWorkName, true
	case "deal_name":
		return FieldDealName, true
	case "task_name":
		return FieldTaskName, true
	case "category_name":
		return FieldCategoryName, true
	case "project_code":
		return FieldProjectCode, true
	default:
		return 0, false
	}
}

// DistinctOptions collects the sorted distinct non-empty values of a field
// across non-deleted records, with extra seed values merged in.
func DistinctOptions(records []WorkRecord, f OptionField, extra []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, r := range records {
		if r.IsDeleted {
			continue
		}
		add(f.Value(r))
	}
	for _, v := range extra {
		add(v)
	}
	sort.Strings(out)
	return out
}
