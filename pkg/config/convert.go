package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The helpers below read values decoded from either YAML (int, bool,
// []interface{}) or JSON (float64, bool, []interface{}).

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func asBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	return false, false
}

func asStrings(v interface{}) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), true
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		return splitList(list), true
	}
	return nil, false
}

// asDuration accepts Go duration strings ("30s") or a number of seconds.
func asDuration(v interface{}) (time.Duration, bool) {
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		return d, err == nil
	}
	if f, ok := asFloat(v); ok {
		return time.Duration(f * float64(time.Second)), true
	}
	return 0, false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func fieldError(section, key string, v interface{}) error {
	return fmt.Errorf("%s.%s: unsupported value %v (%T)", section, key, v, v)
}
