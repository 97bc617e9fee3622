package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidRate is returned when a value has no integer reading.
var ErrInvalidRate = errors.New("rate must be an integer")

// MergeRate returns the stored rate averaged with a submitted one, with
// halves rounded toward positive infinity: (4,5) is 5 and (-3,-2) is -2.
func MergeRate(stored, submitted int) int {
	sum := stored + submitted + 1
	if sum >= 0 {
		return sum / 2
	}
	// Integer division truncates toward zero; floor is wanted here.
	return (sum - 1) / 2
}

// ParseRate reads an integer out of a request or stored value. Numbers are
// truncated toward zero. Strings are read from their leading sign and
// digits, so "4.7" is 4 and "5 stars" is 5; a string without leading
// digits is invalid.
func ParseRate(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return truncate(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, ErrInvalidRate
		}
		return truncate(f)
	case string:
		return parseLeadingInt(n)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidRate, v)
	}
}

func truncate(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, ErrInvalidRate
	}
	return int(math.Trunc(f)), nil
}

func parseLeadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, ErrInvalidRate
	}

	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0, ErrInvalidRate
	}
	return int(n), nil
}
