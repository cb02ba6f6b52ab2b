package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

// headerAliases maps accepted header spellings to User fields.
var headerAliases = map[string]string{
	"id": "id", "uuid": "id", "login.uuid": "id",
	"first_name": "first", "firstname": "first", "first": "first", "name.first": "first",
	"last_name": "last", "lastname": "last", "last": "last", "name.last": "last",
	"email": "email",
	"age": "age", "dob.age": "age",
	"gender": "gender",
	"country": "country", "location.country": "country",
}

// Parse reads a header row and one user per following row. Rows without an
// id column value get a generated UUID so they can still be merged.
func (csvParser) Parse(filename string, in io.Reader) ([]users.User, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(filename)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := headerAliases[key]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	if _, ok := cols["age"]; !ok {
		return nil, fmt.Errorf("%s: missing age column", filename)
	}

	var out []users.User
	for row := 2; ; row++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		get := func(field string) string {
			i, ok := cols[field]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if strings.Join(rec, "") == "" {
			continue
		}
		age, err := strconv.Atoi(get("age"))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid age %q", row, get("age"))
		}
		u := users.User{
			ID:        get("id"),
			FirstName: get("first"),
			LastName:  get("last"),
			Email:     get("email"),
			Age:       age,
			Gender:    strings.ToLower(get("gender")),
			Country:   get("country"),
		}
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		out = append(out, u)
	}
	return out, nil
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}
