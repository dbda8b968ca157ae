package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// smallWords stay lowercase mid-title ("VP of Sales", not "VP Of Sales").
var smallWords = map[string]bool{
	"of": true, "the": true, "and": true, "in": true, "at": true,
	"for": true, "to": true, "a": true, "an": true, "&": true,
}

// acronyms are re-uppercased after title casing.
var acronyms = map[string]string{
	"ceo": "CEO", "cto": "CTO", "cfo": "CFO", "coo": "COO", "cmo": "CMO",
	"cro": "CRO", "cio": "CIO", "cpo": "CPO", "vp": "VP", "svp": "SVP",
	"evp": "EVP", "hr": "HR", "it": "IT", "ai": "AI", "ml": "ML",
	"saas": "SaaS", "b2b": "B2B", "b2c": "B2C", "api": "API", "ui": "UI",
	"ux": "UX", "seo": "SEO", "crm": "CRM", "gtm": "GTM", "sdr": "SDR",
	"bdr": "BDR",
}

var (
	separatorRun = regexp.MustCompile(`(\s*\|\s*)+`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// CleanTitle normalizes a job title: title case with small words kept
// lowercase and common business acronyms restored.
func CleanTitle(s string) string {
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return ""
	}

	words := strings.Split(s, " ")
	for i, w := range words {
		lower := strings.ToLower(w)
		trimmed := strings.Trim(lower, ".,")
		if a, ok := acronyms[trimmed]; ok {
			words[i] = a
			continue
		}
		if i > 0 && smallWords[lower] {
			words[i] = lower
			continue
		}
		words[i] = titleCaser.String(lower)
	}
	return strings.Join(words, " ")
}

// CleanHeadline strips emoji and bullet separators from a profile
// headline, collapsing separators to a single pipe.
func CleanHeadline(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1F9FF, // pictographs
			r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
			b.WriteRune(' ')
		case r == '•' || r == '·':
			b.WriteString(" | ")
		default:
			b.WriteRune(r)
		}
	}

	out := separatorRun.ReplaceAllString(b.String(), " | ")
	out = whitespace.ReplaceAllString(out, " ")
	out = strings.Trim(out, " |")
	out = strings.TrimSpace(out)
	if runes := []rune(out); len(runes) > 200 {
		out = strings.TrimSpace(string(runes[:197])) + "..."
	}
	return out
}

// CleanLocation trims region boilerplate ("Greater London Area" becomes
// "London").
func CleanLocation(s string) string {
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimPrefix(s, "Greater ")
	for _, suffix := range []string{" Area", " Metropolitan", " Metro"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return strings.TrimSpace(s)
}
