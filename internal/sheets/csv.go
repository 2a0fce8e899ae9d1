package sheets

import (
	"encoding/json"
	"strings"
)

// Row is one data line of a sheet, aligned with the header line.
type Row struct {
	Header []string
	Fields []string

	// Line is the 1-based line of the row in the CSV body.
	Line int
}

// Get returns the field under the first header column called name.
func (r Row) Get(name string) string {
	for i, h := range r.Header {
		if h == name {
			return r.At(i)
		}
	}

	return ""
}

// At returns the field at column i, or "" past the end.
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}

	return r.Fields[i]
}

// Map returns the row keyed by header.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.Header))
	for i, h := range r.Header {
		out[h] = r.At(i)
	}

	return out
}

func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// Parse splits a CSV export into rows keyed by its first line.
//
// Fields are split on every literal comma; quoted fields that contain
// commas are not supported and come out split. A single pair of
// surrounding double quotes is stripped from each field, blank lines are
// skipped, and missing trailing fields are empty. Fields past the header
// width are dropped.
func Parse(body string) []Row {
	all, nos := lines(body)
	rows := []Row{}

	if len(all) == 0 {
		return rows
	}

	header := splitLine(all[0])

	for i, line := range all[1:] {
		aligned := make([]string, len(header))
		copy(aligned, splitLine(line))

		rows = append(rows, Row{Header: header, Fields: aligned, Line: nos[i+1]})
	}

	return rows
}

// lines returns the non-blank lines of body with line endings trimmed,
// paired with their 1-based line numbers.
func lines(body string) ([]string, []int) {
	var (
		out []string
		nos []int
	)

	n := 0

	for line := range strings.SplitSeq(body, "\n") {
		n++

		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		out = append(out, line)
		nos = append(nos, n)
	}

	return out, nos
}

func splitLine(line string) []string {
	fields := strings.Split(line, ",")
	for i, f := range fields {
		fields[i] = unquote(f)
	}

	return fields
}

func unquote(field string) string {
	field = strings.TrimSpace(field)
	if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
		return field[1 : len(field)-1]
	}

	return strings.Trim(field, `"`)
}
