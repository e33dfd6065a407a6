package main

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core/resource"
)

func Test_parseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{raw: "Achebe", want: "Achebe"},
		{raw: "", want: ""},
		{raw: "42", want: json.Number("42")},
		{raw: "12.5", want: json.Number("12.5")},
		{raw: "true", want: true},
		{raw: "null", want: nil},
		{raw: `"42"`, want: "42"},
		{raw: `{"a":1}`, want: map[string]interface{}{"a": json.Number("1")}},
		{raw: "42 apples", want: "42 apples"},
		{raw: "{broken", want: "{broken"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.raw))
		})
	}
}

func Test_parseAssignments(t *testing.T) {
	fields, err := parseAssignments([]string{"title=A=B", "pages=3", "note="})
	require.NoError(t, err)
	assert.Equal(t, resource.Entity{"title": "A=B", "pages": json.Number("3"), "note": ""}, fields)

	for _, arg := range []string{"title", "=x"} {
		_, err := parseAssignments([]string{arg})
		assert.True(t, errors.Is(err, errBadAssignment), arg)
	}
}

func Test_parseWhere(t *testing.T) {
	params, err := parseWhere(nil)
	require.NoError(t, err)
	assert.Nil(t, params)

	params, err = parseWhere([]string{"course_id=7", "status=active"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"course_id": "7", "status": "active"}, params)
}

func Test_splitLine(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr error
	}{
		{line: "  list  ", want: []string{"list"}},
		{line: "set title=\"Things Fall Apart\" pages=209", want: []string{"set", "title=Things Fall Apart", "pages=209"}},
		{line: `set note='say "hi"'`, want: []string{"set", `note=say "hi"`}},
		{line: `set note=a\ b`, want: []string{"set", "note=a b"}},
		{line: `search ""`, want: []string{"search", ""}},
		{line: `set title="open`, wantErr: errUnterminated},
		{line: `set title=\`, wantErr: errUnterminated},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitLine(tt.line)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
