package dialect

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ExperienceRange is a normalized years-of-experience filter. Max is nil
// for open-ended ranges ("5+").
type ExperienceRange struct {
	Min int  `json:"min"`
	Max *int `json:"max,omitempty"`
}

// ParseExperience normalizes the three accepted input shapes:
// "N-M" (bounded range), "N+" (open range) and "N" (exact).
func ParseExperience(s string) (*ExperienceRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	switch {
	case strings.Contains(s, "-"):
		parts := strings.SplitN(s, "-", 2)
		lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, eris.Errorf("dialect: invalid experience range %q", s)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, eris.Errorf("dialect: invalid experience range %q", s)
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		return &ExperienceRange{Min: lo, Max: &hi}, nil

	case strings.HasSuffix(s, "+"):
		lo, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "+")))
		if err != nil {
			return nil, eris.Errorf("dialect: invalid experience range %q", s)
		}
		return &ExperienceRange{Min: lo}, nil

	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, eris.Errorf("dialect: invalid experience range %q", s)
		}
		return &ExperienceRange{Min: n, Max: &n}, nil
	}
}
