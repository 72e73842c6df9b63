package model

import (
	"sort"
	"strings"
)

// FormDescriptor describes one <form> element discovered on a page.
// It is constructed once by the HTML parser and treated as immutable
// afterward; the spider only reads from it.
//
// Design decision: We use one typed struct with a map per input kind
// rather than a generic map of maps because:
//  1. The set of input kinds HTML defines is closed and known
//  2. Typed fields make the flattening rules testable in isolation
//  3. It removes the "if key not in dict" patching the data otherwise needs
type FormDescriptor struct {
	// Action is the raw, unresolved action attribute.
	Action string

	// Method is the raw method attribute (GET, POST, or empty).
	Method string

	// Target is the raw target attribute.
	Target string

	// TextFields maps text-like input names (text, password, email,
	// search, tel, url) to their default value.
	TextFields map[string]string

	// RadioButtons maps radio input names to the option values seen.
	RadioButtons map[string][]string

	// Checkboxes maps checkbox input names to the option values seen.
	Checkboxes map[string][]string

	// Dropdowns maps <select> names to their <option> values.
	Dropdowns map[string][]string

	// TextAreas maps <textarea> names to their trimmed text content.
	TextAreas map[string]string

	// Dates through Weeks list the names of inputs that carry no
	// meaningful default value, only presence.
	Dates     []string
	Datetimes []string
	Months    []string
	Numbers   []string
	Ranges    []string
	Times     []string
	Weeks     []string
}

// NewFormDescriptor returns a descriptor with all maps initialized, so
// the parser can fill it without nil checks.
func NewFormDescriptor() *FormDescriptor {
	return &FormDescriptor{
		TextFields:   make(map[string]string),
		RadioButtons: make(map[string][]string),
		Checkboxes:   make(map[string][]string),
		Dropdowns:    make(map[string][]string),
		TextAreas:    make(map[string]string),
	}
}

// Fields flattens the descriptor into field name -> example value.
// Multi-valued inputs (radio, checkbox, select) join their non-empty
// option values with commas; presence-only inputs map to "". A field
// with no usable value maps to "".
func (f *FormDescriptor) Fields() map[string]string {
	fields := make(map[string]string)

	for name, value := range f.TextFields {
		fields[name] = value
	}
	for name, values := range f.RadioButtons {
		fields[name] = joinValues(values)
	}
	for name, values := range f.Checkboxes {
		fields[name] = joinValues(values)
	}
	for name, values := range f.Dropdowns {
		fields[name] = joinValues(values)
	}
	for name, value := range f.TextAreas {
		fields[name] = value
	}
	for _, name := range f.Dates {
		fields[name] = ""
	}
	for _, name := range f.Datetimes {
		fields[name] = ""
	}
	for _, name := range f.Months {
		fields[name] = ""
	}
	for _, name := range f.Numbers {
		fields[name] = ""
	}
	for _, name := range f.Ranges {
		fields[name] = ""
	}
	for _, name := range f.Times {
		fields[name] = ""
	}
	for _, name := range f.Weeks {
		fields[name] = ""
	}

	return fields
}

// joinValues drops empty values, deduplicates, sorts and comma-joins.
func joinValues(values []string) string {
	seen := make(map[string]bool)
	unique := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	sort.Strings(unique)
	return strings.Join(unique, ",")
}

// MaxFormExamples bounds the number of distinct example values kept per
// form field. Without a cap a busy search field would grow its examples
// list forever.
const MaxFormExamples = 50

// MergeExamples merges a newly observed value into a comma-joined
// examples set. Values from multi-valued inputs arrive as composites
// ("asc,desc"), so the incoming value is split on commas and merged
// element-wise. The result is deduplicated and sorted; once the set
// holds MaxFormExamples values, new ones are dropped. Returns the
// merged string and whether it differs from current, so repeated
// observations of the same options settle without writes.
func MergeExamples(current, value string) (string, bool) {
	if value == "" {
		return current, false
	}

	// Stored values come first so they keep priority under the cap.
	seen := make(map[string]bool)
	values := make([]string, 0, MaxFormExamples)
	for _, v := range strings.Split(current+","+value, ",") {
		if v == "" || seen[v] {
			continue
		}
		if len(values) >= MaxFormExamples {
			break
		}
		seen[v] = true
		values = append(values, v)
	}

	sort.Strings(values)
	merged := strings.Join(values, ",")
	return merged, merged != current
}
