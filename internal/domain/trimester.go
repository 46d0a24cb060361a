package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Trimester is an academic term expressed as the calendar months it covers.
type Trimester struct {
	Label  string
	Months []int
}

// DefaultTrimesters returns Fall (Sep-Dec), Winter (Jan-Mar), and Spring
// (Apr-Jun) labelled T1, T2, and T3.
func DefaultTrimesters() []Trimester {
	return []Trimester{
		{Label: "T1", Months: []int{9, 10, 11, 12}},
		{Label: "T2", Months: []int{1, 2, 3}},
		{Label: "T3", Months: []int{4, 5, 6}},
	}
}

// Contains reports whether month belongs to the trimester.
func (t Trimester) Contains(month int) bool {
	for _, m := range t.Months {
		if m == month {
			return true
		}
	}
	return false
}

// String renders the trimester in the same form ParseTrimesters accepts.
func (t Trimester) String() string {
	months := make([]string, len(t.Months))
	for i, m := range t.Months {
		months[i] = strconv.Itoa(m)
	}
	return t.Label + ":" + strings.Join(months, ",")
}

// ParseTrimesters parses a definition such as "T1:9,10,11,12;T2:1,2,3;T3:4,5,6".
// Labels must be unique, months must lie in 1-12, and no month may belong to
// more than one trimester.
func ParseTrimesters(s string) ([]Trimester, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty trimester definition")
	}

	var out []Trimester
	labels := make(map[string]bool)
	owner := make(map[int]string)

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, monthList, ok := strings.Cut(part, ":")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("trimester %q: expected LABEL:MONTHS", part)
		}
		if labels[label] {
			return nil, fmt.Errorf("trimester %q defined twice", label)
		}
		labels[label] = true

		t := Trimester{Label: label}
		for _, field := range strings.Split(monthList, ",") {
			m, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || m < 1 || m > 12 {
				return nil, fmt.Errorf("trimester %q: invalid month %q", label, field)
			}
			if prev, taken := owner[m]; taken {
				return nil, fmt.Errorf("month %d assigned to both %s and %s", m, prev, label)
			}
			owner[m] = label
			t.Months = append(t.Months, m)
		}
		out = append(out, t)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("empty trimester definition")
	}
	return out, nil
}
