package formatter

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kyleking/cas-sdss-mcp/internal/errors"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

// ParseOutputFormat validates a user supplied output format
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", errors.Newf(errors.ErrTypeValidation, "invalid output format: %s (must be table or json)", s)
	}
}

// Pair is an ordered two-element tuple. It serializes as a JSON array.
type Pair [2]string

// NewPair creates a pair
func NewPair(first, second string) Pair {
	return Pair{first, second}
}

// First returns the first element
func (p Pair) First() string { return p[0] }

// Second returns the second element
func (p Pair) Second() string { return p[1] }

// Text normalizes an optional text value: absent becomes the empty string.
func Text(v sql.NullString) string {
	if !v.Valid {
		return ""
	}

	return v.String
}

// Dedupe drops items whose key was already seen, keeping first-seen order.
func Dedupe[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))

	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, item)
	}

	return out
}

// PairsOrMessage flattens a sequence result for the tool boundary: the pairs
// on success, otherwise a single-element sequence carrying the message.
func PairsOrMessage(pairs []Pair, err error) any {
	if err != nil {
		return []string{errors.Message(err)}
	}

	if pairs == nil {
		return []Pair{}
	}

	return pairs
}

// PairOrMessage flattens a single-value result: the pair on success,
// otherwise the bare message string.
func PairOrMessage(pair Pair, err error) any {
	if err != nil {
		return errors.Message(err)
	}

	return pair
}

// Strings returns items, never nil, so that it serializes as an empty array
func Strings(items []string) []string {
	if items == nil {
		return []string{}
	}

	return items
}

// Formatter renders query results for the command line
type Formatter struct{}

// NewFormatter creates a new formatter instance
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatPairs renders pairs under two column headers
func (f *Formatter) FormatPairs(headers Pair, pairs []Pair, format OutputFormat) (string, error) {
	if format == FormatJSON {
		return f.formatJSON(PairsOrMessage(pairs, nil))
	}

	var buf bytes.Buffer

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(headers.First()), strings.ToUpper(headers.Second()))

	for _, p := range pairs {
		fmt.Fprintf(w, "%s\t%s\n", p.First(), f.orDash(p.Second()))
	}

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}

	return buf.String(), nil
}

// FormatPair renders a single pair as labelled lines
func (f *Formatter) FormatPair(labels, pair Pair, format OutputFormat) (string, error) {
	if format == FormatJSON {
		return f.formatJSON(pair)
	}

	return fmt.Sprintf("%s: %s\n%s: %s\n",
		labels.First(), f.orDash(pair.First()),
		labels.Second(), f.orDash(pair.Second()),
	), nil
}

// FormatStrings renders a list of strings, one per line
func (f *Formatter) FormatStrings(items []string, format OutputFormat) (string, error) {
	if format == FormatJSON {
		return f.formatJSON(Strings(items))
	}

	if len(items) == 0 {
		return "", nil
	}

	return strings.Join(items, "\n") + "\n", nil
}

func (f *Formatter) formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(data) + "\n", nil
}

func (f *Formatter) orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
