package sheets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []map[string]string
	}{
		{
			name: "quoted data row",
			body: "A,B\n\"1\",\"2\"",
			want: []map[string]string{{"A": "1", "B": "2"}},
		},
		{
			name: "quoted header and crlf",
			body: "\"A\",\"B\"\r\n\"x\",\"y\"\r\n",
			want: []map[string]string{{"A": "x", "B": "y"}},
		},
		{
			name: "blank lines skipped",
			body: "\nA,B\n\n1,2\n   \n3,4\n",
			want: []map[string]string{{"A": "1", "B": "2"}, {"A": "3", "B": "4"}},
		},
		{
			name: "missing trailing fields are empty",
			body: "A,B,C\n1",
			want: []map[string]string{{"A": "1", "B": "", "C": ""}},
		},
		{
			name: "extra fields dropped",
			body: "A\n1,2,3",
			want: []map[string]string{{"A": "1"}},
		},
		{
			name: "quoted comma splits literally",
			body: "A,B\n\"Hidalgo, Pachuca\",x",
			want: []map[string]string{{"A": "Hidalgo", "B": "Pachuca"}},
		},
		{
			name: "header only",
			body: "A,B\n",
			want: []map[string]string{},
		},
		{
			name: "empty body",
			body: "",
			want: []map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Parse(tt.body)

			got := make([]map[string]string, 0, len(rows))
			for _, r := range rows {
				got = append(got, r.Map())
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_LineNumbers(t *testing.T) {
	rows := Parse("A\n\n1\n2")
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[0].Line)
	assert.Equal(t, 4, rows[1].Line)
}

func TestRow_Accessors(t *testing.T) {
	rows := Parse("id,curp\n7,ABC")
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "7", r.At(0))
	assert.Equal(t, "ABC", r.Get("curp"))
	assert.Empty(t, r.Get("missing"))
	assert.Empty(t, r.At(9))
	assert.Empty(t, r.At(-1))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","curp":"ABC"}`, string(data))
}
