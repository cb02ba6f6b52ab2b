package parser

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

type jsonParser struct{}

func (jsonParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

// Parse accepts a JSON array of users with snake_case keys, the format
// `userdeck list --json` prints.
func (jsonParser) Parse(filename string, in io.Reader) ([]users.User, error) {
	var out []users.User
	if err := json.NewDecoder(in).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return out, nil
}
