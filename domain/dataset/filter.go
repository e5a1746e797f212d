package dataset

import "strings"

// AllOption is the selector value that disables a predicate.
const AllOption = "All"

// Criteria are equality predicates on categorical columns. An empty field
// matches every record.
type Criteria struct {
	Gender    string `json:"gender,omitempty" form:"gender"`
	Condition string `json:"medical_condition,omitempty" form:"condition"`
	Hospital  string `json:"hospital,omitempty" form:"hospital"`
}

// NewCriteria builds criteria from selector values, mapping "All" and
// blank selections to "match everything".
func NewCriteria(gender, condition string) Criteria {
	return Criteria{
		Gender:    normalizeSelection(gender),
		Condition: normalizeSelection(condition),
	}
}

// Normalize applies the selector rules to every field.
func (c Criteria) Normalize() Criteria {
	return Criteria{
		Gender:    normalizeSelection(c.Gender),
		Condition: normalizeSelection(c.Condition),
		Hospital:  normalizeSelection(c.Hospital),
	}
}

func normalizeSelection(s string) string {
	if strings.TrimSpace(s) == "" || s == AllOption {
		return ""
	}
	return s
}

// IsEmpty reports whether the criteria match every record.
func (c Criteria) IsEmpty() bool {
	return c.Gender == "" && c.Condition == "" && c.Hospital == ""
}

// Predicates returns the active predicates keyed by column name.
func (c Criteria) Predicates() map[string]string {
	p := make(map[string]string, 3)
	if c.Gender != "" {
		p[string(ColGender)] = c.Gender
	}
	if c.Condition != "" {
		p[string(ColCondition)] = c.Condition
	}
	if c.Hospital != "" {
		p[string(ColHospital)] = c.Hospital
	}
	return p
}

// Matches reports whether r satisfies every active predicate.
func (c Criteria) Matches(r Record) bool {
	if c.Gender != "" && r.Gender != c.Gender {
		return false
	}
	if c.Condition != "" && r.Condition != c.Condition {
		return false
	}
	if c.Hospital != "" && r.Hospital != c.Hospital {
		return false
	}
	return true
}

// Filter returns the derived view of records matching c, in source order.
// The receiver is never modified; with no active predicates the receiver
// itself is returned since datasets are immutable.
func (d *Dataset) Filter(c Criteria) *Dataset {
	c = c.Normalize()
	if c.IsEmpty() {
		return d
	}
	view := &Dataset{meta: d.meta}
	for _, r := range d.records {
		if c.Matches(r) {
			view.records = append(view.records, r)
		}
	}
	return view
}
