package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	model "github.com/researchloop/outreach/backend/internal/model/survey"
)

type prompter struct {
	in  *bufio.Scanner
	out *bufio.Writer
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) println(s string) {
	fmt.Fprintln(p.out, s)
}

// ask prints the prompt and returns the trimmed reply. ok is false at EOF.
func (p *prompter) ask(prompt string) (string, bool) {
	p.printf("%s", prompt)
	p.out.Flush()
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func (p *prompter) confirm(prompt string, def bool) bool {
	line, ok := p.ask(prompt)
	if !ok {
		return false
	}
	switch strings.ToLower(line) {
	case "":
		return def
	case "y", "yes":
		return true
	default:
		return false
	}
}

// describe renders a field prompt with its options and current value.
func describe(f model.Field, a model.Answers) string {
	var b strings.Builder
	b.WriteString(f.Label)
	if len(f.Options) > 0 {
		b.WriteString("\n")
		for i, opt := range f.Options {
			fmt.Fprintf(&b, "  %d) %s\n", i+1, opt)
		}
		if f.Type == model.Checkbox {
			b.WriteString("  (comma separated)")
		}
	}
	if current := a.List(f.Name); len(current) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(current, ", "))
	}
	b.WriteString(": ")
	return b.String()
}

// parseAnswer turns a reply into field values. Grouped fields accept option
// numbers or option text.
func parseAnswer(f model.Field, line string) ([]string, error) {
	if !f.Grouped() {
		return []string{line}, nil
	}

	parts := []string{line}
	if f.Type == model.Checkbox {
		parts = strings.Split(line, ",")
	}

	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		opt, ok := matchOption(f.Options, part)
		if !ok {
			return nil, fmt.Errorf("%q is not one of the options", part)
		}
		values = append(values, opt)
	}
	return values, nil
}

func matchOption(options []string, input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	for _, opt := range options {
		if strings.EqualFold(opt, input) {
			return opt, true
		}
	}
	return "", false
}

// parseUTM reads "k=v,k=v" into campaign parameters. Keys without the utm_
// prefix are dropped.
func parseUTM(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if strings.HasPrefix(k, "utm_") && v != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}
