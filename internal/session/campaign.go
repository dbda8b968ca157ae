package session

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// CompanyCode derives a 3-letter workspace code used in campaign names:
// the first three capital letters of the name, or the first three
// characters upper-cased when the name has fewer than three capitals.
// Always padded with 'X' to length 3.
func CompanyCode(workspaceName string) string {
	name := strings.TrimSpace(workspaceName)

	var code string
	switch {
	case countUpper(name) >= 3:
		var caps []rune
		for _, r := range name {
			if unicode.IsUpper(r) {
				caps = append(caps, r)
				if len(caps) == 3 {
					break
				}
			}
		}
		code = string(caps)
	default:
		code = strings.ToUpper(take(name, 3))
	}

	for utf8.RuneCountInString(code) < 3 {
		code += "X"
	}
	return code
}

// CampaignName builds the human batch name: the date and company code,
// then either the caller's custom name or a sequential "Search NN" label.
func CampaignName(now time.Time, workspaceName, custom string, existingBatches int) string {
	prefix := fmt.Sprintf("%s-%s", now.Format("20060102"), CompanyCode(workspaceName))
	if custom = strings.TrimSpace(custom); custom != "" {
		return fmt.Sprintf("%s-%s", prefix, custom)
	}
	return fmt.Sprintf("%s-Search %02d", prefix, existingBatches+1)
}

func countUpper(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			n++
		}
	}
	return n
}

func take(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
