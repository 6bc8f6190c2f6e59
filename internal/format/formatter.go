// Package format applies the display-only field separator and field
// selection transforms to body/header lines. The Formatter never touches the
// underlying LineBuffer: $line and $lines always read the unformatted
// content.
package format

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// FieldRange is a 1-based, inclusive field selection: {From: 3, To: 4} is
// "3-4"; {From: 6, To: 0} (open-ended) is "6-"; {From: 1, To: 1} is "1".
type FieldRange struct {
	From int
	To   int // 0 means open-ended
}

// Config configures the Formatter. A zero Config passes lines through
// unchanged.
type Config struct {
	Separator string
	Fields    []FieldRange
}

// ParseFieldSelections parses a CLI-style "1,3-4,6-" string into FieldRanges.
func ParseFieldSelections(s string) ([]FieldRange, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ranges := make([]FieldRange, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if i := strings.IndexByte(p, '-'); i >= 0 {
			fromStr, toStr := p[:i], p[i+1:]
			from, err := strconv.Atoi(fromStr)
			if err != nil {
				return nil, err
			}
			to := 0
			if toStr != "" {
				to, err = strconv.Atoi(toStr)
				if err != nil {
					return nil, err
				}
			}
			ranges = append(ranges, FieldRange{From: from, To: to})
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, FieldRange{From: n, To: n})
	}
	return ranges, nil
}

// Format renders raw lines for display: split on Separator (ANSI-aware),
// realign columns with elastic tabstops sized to the visible rows, then
// project to the configured Fields. It is pure: equal inputs produce equal
// outputs, and it never mutates the input slice.
func Format(cfg Config, rawLines []string) []string {
	if cfg.Separator == "" && len(cfg.Fields) == 0 {
		return append([]string(nil), rawLines...)
	}

	rows := rawLines
	if cfg.Separator != "" {
		rows = alignColumns(rawLines, cfg.Separator)
	}

	if len(cfg.Fields) == 0 {
		return rows
	}

	sep := cfg.Separator
	if sep == "" {
		sep = " "
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		cols := splitANSIAware(row, sep)
		out[i] = projectFields(cols, cfg.Fields, sep)
	}
	return out
}

// splitANSIAware splits s on sep, a plain literal separator. ANSI escape
// sequences do not contain the separator byte in practice (SGR sequences end
// in 'm'), so a literal strings.Split is ANSI-safe here; the ANSI-aware work
// is in measuring widths, not in the split itself.
func splitANSIAware(s, sep string) []string {
	return strings.Split(s, sep)
}

// alignColumns realigns rawLines into elastic-tabstop columns: each column,
// the last one included, is padded with trailing spaces to the max
// ansi.StringWidth of that column across all of rawLines (the currently
// visible rows, per the caller). The separator is kept in the output: the
// padding goes before each sep rather than replacing it.
func alignColumns(rawLines []string, sep string) []string {
	split := make([][]string, len(rawLines))
	maxCols := 0
	for i, line := range rawLines {
		cols := splitANSIAware(line, sep)
		split[i] = cols
		if len(cols) > maxCols {
			maxCols = len(cols)
		}
	}

	widths := make([]int, maxCols)
	for _, cols := range split {
		for c, col := range cols {
			if w := Width(col); w > widths[c] {
				widths[c] = w
			}
		}
	}

	out := make([]string, len(rawLines))
	for i, cols := range split {
		var b strings.Builder
		for c, col := range cols {
			b.WriteString(col)
			if pad := widths[c] - Width(col); pad > 0 {
				b.WriteString(strings.Repeat(" ", pad))
			}
			if c < len(cols)-1 {
				b.WriteString(sep)
			}
		}
		out[i] = b.String()
	}
	return out
}

// projectFields selects the 1-based fields named by ranges from cols,
// missing fields rendering as empty strings, and rejoins with sep.
func projectFields(cols []string, ranges []FieldRange, sep string) string {
	var picked []string
	for _, r := range ranges {
		from := r.From
		to := r.To
		if to == 0 {
			to = len(cols)
		}
		for idx := from; idx <= to; idx++ {
			if idx >= 1 && idx <= len(cols) {
				picked = append(picked, cols[idx-1])
			} else {
				picked = append(picked, "")
			}
		}
	}
	return strings.Join(picked, sep)
}

// Width returns the visible terminal width of s, ANSI sequences excluded.
// Used by alignColumns to size elastic-tabstop columns.
func Width(s string) int {
	return ansi.StringWidth(s)
}
