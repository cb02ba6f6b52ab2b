package users

import "strings"

// All disables the country or gender constraint of a filter.
const All = "all"

// Filters narrows the visible user list.
type Filters struct {
	Search  string `json:"search"`
	Country string `json:"country"`
	Gender  string `json:"gender"`
}

// DefaultFilters matches every user.
func DefaultFilters() Filters {
	return Filters{Search: "", Country: All, Gender: All}
}

// IsZero reports whether the filters match every user.
func (f Filters) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && isAll(f.Country) && isAll(f.Gender)
}

// Match reports whether u passes all three constraints.
func (f Filters) Match(u User) bool {
	if q := strings.ToLower(f.Search); q != "" {
		if !strings.Contains(strings.ToLower(u.FirstName), q) &&
			!strings.Contains(strings.ToLower(u.LastName), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			return false
		}
	}
	if !isAll(f.Country) && !strings.EqualFold(u.Country, f.Country) {
		return false
	}
	if !isAll(f.Gender) && u.Gender != f.Gender {
		return false
	}
	return true
}

// Filter returns the users matching f, in input order. The input is not modified.
func Filter(list []User, f Filters) []User {
	out := make([]User, 0, len(list))
	for _, u := range list {
		if f.Match(u) {
			out = append(out, u)
		}
	}
	return out
}

func isAll(v string) bool {
	return v == "" || v == All
}
