package console

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestInt_RepromptsUntilValid(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("abc\n\n42\n"), &out)

	n, err := p.Int("ID? ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}
	if got := strings.Count(out.String(), "Your input is invalid!"); got != 2 {
		t.Errorf("expected 2 invalid notices, got %d: %q", got, out.String())
	}
	if got := strings.Count(out.String(), "ID? "); got != 3 {
		t.Errorf("expected 3 prompts, got %d", got)
	}
}

func TestInt_EOF(t *testing.T) {
	p := New(strings.NewReader("x\n"), &bytes.Buffer{})
	if _, err := p.Int("? "); !IsEOF(err) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestString_Check(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("Q\nF\n"), &out)

	v, err := p.String("Gender? ", func(s string) error {
		if s != "F" && s != "M" {
			return errors.New("The patient's gender must be F or M.")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "F" {
		t.Errorf("expected F, got %q", v)
	}
	if !strings.Contains(out.String(), "Your input is invalid! The patient's gender must be F or M.") {
		t.Errorf("expected the check message, got %q", out.String())
	}
}

func TestLine_KeepsSpacesAndDropsCR(t *testing.T) {
	p := New(strings.NewReader("12 Main St \r\n"), &bytes.Buffer{})
	v, err := p.Line("? ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "12 Main St " {
		t.Errorf("unexpected line %q", v)
	}
}

func TestParse(t *testing.T) {
	p := New(strings.NewReader("-\n7\n"), &bytes.Buffer{})
	n, err := Parse(p, "? ", strconv.Atoi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
}

func TestTable(t *testing.T) {
	var out bytes.Buffer
	if err := Table(&out, []string{"id", "name"}, [][]string{{"3", "Grey"}, {"14", "Shepherd"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[1], "3 ") || !strings.Contains(lines[2], "Shepherd") {
		t.Errorf("unexpected table %q", out.String())
	}
	if lines[3] != "total row(s): 2" {
		t.Errorf("unexpected footer %q", lines[3])
	}
}
