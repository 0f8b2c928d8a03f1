package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// pageIDPattern extracts the page number from identifiers and file names.
var pageIDPattern = regexp.MustCompile(`(?i)page_(\d+)`)

// ParsePageID returns the page number embedded in s ("page_12" -> 12).
// Only positive numbers are accepted.
func ParsePageID(s string) (int, bool) {
	m := pageIDPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// DecodeJSON decodes data keeping numbers as json.Number so that values
// written back are byte-identical to the values read.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

// stringValue converts a scalar JSON value to a string. nil becomes "".
func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// intValue converts a JSON number or numeric string to an int.
func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := strconv.Atoi(x.String())
		return n, err == nil
	case float64:
		return int(x), x == float64(int(x))
	case int:
		return x, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

// stringSlice converts a JSON array of scalars to a string slice.
func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringValue(item))
	}
	return out
}

// PageNumber derives the page number of a consolidated page entry: from the
// page identifier, then the explicit page number field, then the position.
// The first positive result wins.
func PageNumber(entry any, index int) int {
	if m, ok := entry.(map[string]any); ok {
		switch id := m["page_id"].(type) {
		case string:
			if n, ok := ParsePageID(id); ok {
				return n
			}
		case json.Number:
			if n, ok := intValue(id); ok && n > 0 {
				return n
			}
		}
		if n, ok := intValue(m["page_number"]); ok && n > 0 {
			return n
		}
	}
	return index + 1
}
