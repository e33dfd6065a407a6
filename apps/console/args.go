package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/resource"
)

var (
	errBadAssignment = errors.New("expected field=value")
	errUnterminated  = errors.New("unterminated quote or escape")
)

// parseAssignments reads field=value arguments into an entity. See parseValue for how values are typed.
func parseAssignments(args []string) (resource.Entity, error) {
	fields := make(resource.Entity, len(args))
	for _, arg := range args {
		field, raw, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		fields[field] = parseValue(raw)
	}
	return fields, nil
}

// parseWhere reads field=value arguments as raw query parameters.
func parseWhere(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(args))
	for _, arg := range args {
		field, raw, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		params[field] = raw
	}
	return params, nil
}

func splitAssignment(arg string) (field, value string, err error) {
	i := strings.IndexByte(arg, '=')
	if i <= 0 {
		return "", "", errors.Wrapf(errBadAssignment, "%q", arg)
	}
	return strings.TrimSpace(arg[:i]), arg[i+1:], nil
}

// parseValue decodes raw as JSON when it is a complete JSON value, so that
// 42, true, null and {"a":1} keep their types. Anything else is a plain string.
func parseValue(raw string) interface{} {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if _, err := dec.Token(); err != io.EOF {
		return raw
	}
	return v
}

// splitLine splits a shell line on whitespace. Single or double quotes group words,
// and a backslash escapes the next character outside single quotes.
func splitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote, inWord = r, true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminated
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
