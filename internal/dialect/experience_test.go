package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExperience(t *testing.T) {
	three, five := 3, 5

	tests := []struct {
		in      string
		want    *ExperienceRange
		wantErr bool
	}{
		{"3-5", &ExperienceRange{Min: 3, Max: &five}, false},
		{"5-3", &ExperienceRange{Min: 3, Max: &five}, false},
		{"5+", &ExperienceRange{Min: 5}, false},
		{"3", &ExperienceRange{Min: 3, Max: &three}, false},
		{" 3 - 5 ", &ExperienceRange{Min: 3, Max: &five}, false},
		{"", nil, false},
		{"senior", nil, true},
		{"x+", nil, true},
		{"a-b", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExperience(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
