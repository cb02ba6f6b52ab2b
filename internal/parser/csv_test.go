package parser_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/userdeck-cli/internal/parser"
)

func TestParseFileCSV_Users(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "users.csv")
	content := "ID,First Name,first_name,last_name,Email,Age,Gender,Country\n" +
		"u1,,Ada,Lovelace,ada@example.com,36,Female,United Kingdom\n" +
		",,Alan,Turing,alan@example.com,41,male,United Kingdom\n" +
		"\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 users, got %d: %+v", len(out), out)
	}
	if out[0].ID != "u1" || out[0].FirstName != "Ada" || out[0].Gender != "female" {
		t.Fatalf("unexpected first user: %+v", out[0])
	}
	if out[1].ID == "" {
		t.Fatalf("expected generated id for second user")
	}
	if out[1].Age != 41 || out[1].Country != "United Kingdom" {
		t.Fatalf("unexpected second user: %+v", out[1])
	}
}

func TestParseFileTSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "users.tsv")
	content := "uuid\tname.first\tdob.age\tlocation.country\n" +
		"x\tGrace\t85\tUnited States\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := parser.ParseFile(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != 1 || out[0].FirstName != "Grace" || out[0].Age != 85 || out[0].Country != "United States" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestParseFileCSV_BadAge(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(p, []byte("id,age\nu1,old\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := parser.ParseFile(p)
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row 2 error, got %v", err)
	}
}

func TestParseFileCSV_MissingAgeColumn(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "noage.csv")
	if err := os.WriteFile(p, []byte("id,first_name\nu1,Ada\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := parser.ParseFile(p); err == nil {
		t.Fatalf("expected missing age column error")
	}
}
