// Package console reads validated answers from an interactive terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

const invalidInput = "Your input is invalid!"

// Prompter asks questions on out and reads one line answer per question from
// in. Every method returns io.EOF once the input is exhausted.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

func (p *Prompter) Out() io.Writer { return p.out }

func (p *Prompter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Prompter) Println(args ...interface{}) {
	fmt.Fprintln(p.out, args...)
}

// Line prints prompt and returns the next input line without its newline.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(p.scanner.Text(), "\r"), nil
}

// String asks until check accepts the answer. A rejected answer prints the
// invalid input notice followed by the check's message.
func (p *Prompter) String(prompt string, check func(string) error) (string, error) {
	for {
		v, err := p.Line(prompt)
		if err != nil {
			return "", err
		}
		if check == nil {
			return v, nil
		}
		if err := check(v); err != nil {
			p.Println(invalidInput, err.Error())
			continue
		}
		return v, nil
	}
}

// Int asks until the answer parses as an integer.
func (p *Prompter) Int(prompt string) (int, error) {
	for {
		v, err := p.Line(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			p.Println(invalidInput)
			continue
		}
		return n, nil
	}
}

// Parse asks until parse accepts the answer and returns its result.
func Parse[T any](p *Prompter, prompt string, parse func(string) (T, error)) (T, error) {
	var result T
	_, err := p.String(prompt, func(v string) error {
		r, err := parse(v)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// IsEOF reports whether err means the input ended.
func IsEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

// Table writes columns and rows aligned on tab stops.
func Table(w io.Writer, columns []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	fmt.Fprintf(tw, "total row(s): %d\n", len(rows))
	return tw.Flush()
}
