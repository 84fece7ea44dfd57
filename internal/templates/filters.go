package templates

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const (
	defaultCreatorsMaxLen = 20
	maxCreators           = 3
	creatorSeparator      = ", "
)

// Tags that hide a record behind a "coming soon" badge.
const (
	ComingSoonTag      = "_comingsoon"
	ComingSoonTagLabel = "Coming soon"
)

// Creator is a record author as delivered by the library.
type Creator struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Tag is a record tag as delivered by the library.
type Tag struct {
	Tag string `json:"tag"`
}

// Result is the subset of a search result the helpers look at.
type Result struct {
	Data struct {
		Tags []Tag `json:"tags"`
	} `json:"data"`
}

// FormatDate renders a date string as "Jan 2nd, 2006". Values that cannot be
// parsed are returned unchanged.
func FormatDate(value string) string {
	// dateparse accepts digit-free text as a literal layout and yields year 0.
	if !strings.ContainsAny(value, "0123456789") {
		return value
	}
	t, ok := parseMonthYear(value)
	if !ok {
		var err error
		t, err = dateparse.ParseAny(value)
		if err != nil || t.Year() == 0 {
			return value
		}
	}
	return t.Format("Jan") + " " + ordinal(t.Day()) + ", " + t.Format("2006")
}

// monthYearLayouts cover partial dates without a day, which render as the 1st.
var monthYearLayouts = []string{"January 2006", "Jan 2006", "January, 2006", "Jan. 2006"}

func parseMonthYear(value string) (time.Time, bool) {
	value = strings.Join(strings.Fields(value), " ")
	for _, layout := range monthYearLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 10 || n%100 > 20 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// FormatCreators lists up to the first three creators as "First Last, ...".
// Entries without both names are skipped but still count towards the three.
// The list is cut to maxLen characters (20 by default) with an ellipsis.
func FormatCreators(creators []Creator, maxLen ...int) string {
	limit := defaultCreatorsMaxLen
	if len(maxLen) > 0 {
		limit = maxLen[0]
	}

	var b strings.Builder
	for i, c := range creators {
		if i >= maxCreators {
			break
		}
		if c.FirstName != "" && c.LastName != "" {
			b.WriteString(c.FirstName + " " + c.LastName + creatorSeparator)
		}
	}

	if limit < 0 {
		limit = 0
	}
	out := []rune(b.String())
	if len(out) > limit {
		return strings.TrimRight(string(out[:limit])+"...", creatorSeparator)
	}
	return strings.TrimRight(string(out), creatorSeparator)
}

// IsComingSoon reports whether the result carries a coming-soon tag.
func IsComingSoon(result Result) bool {
	for _, tag := range result.Data.Tags {
		if tag.Tag == ComingSoonTag || tag.Tag == ComingSoonTagLabel {
			return true
		}
	}
	return false
}

// Template-facing wrappers. The library hands templates loosely typed JSON
// documents, so values are coerced through their JSON form.

func formatDateFunc(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return FormatDate(s)
}

func formatCreatorsFunc(value any, maxLen ...int) string {
	var creators []Creator
	if c, ok := value.([]Creator); ok {
		creators = c
	} else if !coerce(value, &creators) {
		return ""
	}
	return FormatCreators(creators, maxLen...)
}

func isComingSoonFunc(value any) bool {
	var result Result
	switch r := value.(type) {
	case Result:
		result = r
	case *Result:
		if r == nil {
			return false
		}
		result = *r
	default:
		if !coerce(value, &result) {
			return false
		}
	}
	return IsComingSoon(result)
}

func coerce(value any, target any) bool {
	if value == nil {
		return false
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}
