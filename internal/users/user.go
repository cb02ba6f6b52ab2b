package users

import "strings"

// User is one directory entry as seen by the rest of userdeck.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Country   string `json:"country"`
}

// DisplayName joins first and last name for labels.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Merge combines two user lists keyed by ID. A key keeps the position where it
// was first seen; later records with the same ID replace its contents.
func Merge(existing, fresh []User) []User {
	out := make([]User, 0, len(existing)+len(fresh))
	pos := make(map[string]int, len(existing)+len(fresh))
	add := func(u User) {
		if i, ok := pos[u.ID]; ok {
			out[i] = u
			return
		}
		pos[u.ID] = len(out)
		out = append(out, u)
	}
	for _, u := range existing {
		add(u)
	}
	for _, u := range fresh {
		add(u)
	}
	return out
}

// Countries returns the distinct country names in first-seen order.
func Countries(list []User) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range list {
		c := strings.TrimSpace(u.Country)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
