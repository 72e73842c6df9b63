package model

import (
	"fmt"
	"strings"
	"testing"
)

func TestFormDescriptorFields(t *testing.T) {
	t.Parallel()

	t.Run("text fields keep default values", func(t *testing.T) {
		t.Parallel()

		f := NewFormDescriptor()
		f.TextFields["username"] = "admin"
		f.TextFields["q"] = ""

		fields := f.Fields()
		if fields["username"] != "admin" {
			t.Errorf("username = %q, want admin", fields["username"])
		}
		if v, ok := fields["q"]; !ok || v != "" {
			t.Errorf("q = %q (present=%v), want empty and present", v, ok)
		}
	})

	t.Run("multi valued inputs join sorted unique values", func(t *testing.T) {
		t.Parallel()

		f := NewFormDescriptor()
		f.Checkboxes["opts"] = []string{"b", "a", "b", ""}
		f.RadioButtons["choice"] = []string{"yes", "no"}
		f.Dropdowns["lang"] = []string{"go", "c"}

		fields := f.Fields()
		if fields["opts"] != "a,b" {
			t.Errorf("opts = %q, want a,b", fields["opts"])
		}
		if fields["choice"] != "no,yes" {
			t.Errorf("choice = %q, want no,yes", fields["choice"])
		}
		if fields["lang"] != "c,go" {
			t.Errorf("lang = %q, want c,go", fields["lang"])
		}
	})

	t.Run("presence only inputs map to empty", func(t *testing.T) {
		t.Parallel()

		f := NewFormDescriptor()
		f.Dates = append(f.Dates, "birthday")
		f.Numbers = append(f.Numbers, "age")

		fields := f.Fields()
		for _, name := range []string{"birthday", "age"} {
			if v, ok := fields[name]; !ok || v != "" {
				t.Errorf("%s = %q (present=%v), want empty and present", name, v, ok)
			}
		}
	})

	t.Run("textareas keep content", func(t *testing.T) {
		t.Parallel()

		f := NewFormDescriptor()
		f.TextAreas["comment"] = "hello"

		if got := f.Fields()["comment"]; got != "hello" {
			t.Errorf("comment = %q, want hello", got)
		}
	})
}

func TestMergeExamples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     string
		value       string
		want        string
		wantChanged bool
	}{
		{"first value", "", "alpha", "alpha", true},
		{"new value sorted in", "beta", "alpha", "alpha,beta", true},
		{"duplicate ignored", "alpha,beta", "alpha", "alpha,beta", false},
		{"empty value ignored", "alpha", "", "alpha", false},
		{"composite value splits into elements", "", "asc,desc", "asc,desc", true},
		{"composite duplicate ignored", "asc,desc", "asc,desc", "asc,desc", false},
		{"composite merges element-wise", "asc,desc", "asc,random", "asc,desc,random", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, changed := MergeExamples(tt.current, tt.value)
			if got != tt.want || changed != tt.wantChanged {
				t.Errorf("MergeExamples(%q, %q) = (%q, %v), want (%q, %v)",
					tt.current, tt.value, got, changed, tt.want, tt.wantChanged)
			}
		})
	}

	t.Run("repeated composites settle", func(t *testing.T) {
		t.Parallel()

		// A checkbox group arrives as one comma-joined composite on
		// every rescan; merging it again and again must not grow the
		// set or report a change after the first round.
		current, changed := MergeExamples("", "1,2")
		if current != "1,2" || !changed {
			t.Fatalf("first merge = (%q, %v), want (1,2, true)", current, changed)
		}
		for i := 0; i < 4; i++ {
			got, changed := MergeExamples(current, "1,2")
			if got != "1,2" || changed {
				t.Fatalf("merge %d = (%q, %v), want (1,2, false)", i, got, changed)
			}
			current = got
		}
	})

	t.Run("full set drops new values", func(t *testing.T) {
		t.Parallel()

		values := make([]string, MaxFormExamples)
		for i := range values {
			values[i] = fmt.Sprintf("value%02d", i)
		}
		current := strings.Join(values, ",")

		got, changed := MergeExamples(current, "zzz-new")
		if changed || got != current {
			t.Errorf("merge into full set changed the set: changed=%v", changed)
		}
	})
}
