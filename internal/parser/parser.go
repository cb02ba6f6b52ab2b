package parser

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

// Parser reads user records from an exported file.
type Parser interface {
	CanParse(filename string) bool
	Parse(filename string, r io.Reader) ([]users.User, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile selects a parser based on filename and returns the records it holds.
func ParseFile(path string) ([]users.User, error) {
	for _, p := range registry {
		if !p.CanParse(path) {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		return p.Parse(path, f)
	}
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}

func init() {
	// Register default parsers
	Register(csvParser{})
	Register(jsonParser{})
}

// ErrUnsupported indicates a format is not supported yet.
var ErrUnsupported = errors.New("unsupported import format")
