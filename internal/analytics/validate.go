package analytics

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

// MalformedRecordError reports a user record that lacks a required field or
// carries a value outside its domain.
type MalformedRecordError struct {
	Index  int
	ID     string
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed record %d (id=%s): %s %s", e.Index, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed record %d: %s %s", e.Index, e.Field, e.Reason)
}

// Validate returns a *MalformedRecordError for the first record missing an
// identifier or carrying a negative age.
func Validate(list []users.User) error {
	for i, u := range list {
		if strings.TrimSpace(u.ID) == "" {
			return &MalformedRecordError{Index: i, Field: "id", Reason: "is missing"}
		}
		if u.Age < 0 {
			return &MalformedRecordError{Index: i, ID: u.ID, Field: "age", Reason: fmt.Sprintf("is negative (%d)", u.Age)}
		}
	}
	return nil
}
