package cmd

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// table prints aligned columns under a ruled header, with an optional
// total row below a second rule.
type table struct {
	rows  [][]string
	total []string
}

func newTable(headers ...string) *table {
	return &table{rows: [][]string{headers}}
}

func (t *table) row(cols ...any) {
	t.rows = append(t.rows, cells(cols))
}

func (t *table) totals(cols ...any) {
	t.total = cells(cols)
}

func (t *table) print() {
	all := t.rows
	if t.total != nil {
		all = append(all[:len(all):len(all)], t.total)
	}
	var widths []int
	for _, r := range all {
		for i, c := range r {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(c))
		}
	}
	ruleWidth := 0
	for _, w := range widths {
		ruleWidth += w + 2
	}
	rule := strings.Repeat("─", max(ruleWidth-2, 0))

	line := func(r []string) {
		var b strings.Builder
		for i, c := range r {
			b.WriteString(c)
			if i < len(r)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(c)+2))
			}
		}
		fmt.Println(strings.TrimRight(b.String(), " "))
	}

	line(t.rows[0])
	fmt.Println(rule)
	for _, r := range t.rows[1:] {
		line(r)
	}
	if t.total != nil {
		fmt.Println(rule)
		line(t.total)
	}
}

func cells(cols []any) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprint(c)
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
