// Package normalize converts dialect-specific raw search items into
// canonical prospects, enforcing the name, URL and connection-degree
// invariants along the way.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/dialect"
	"github.com/innovareai/sam-prospector/internal/model"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

// Options fixes the context a batch of raw items is normalized under.
type Options struct {
	Dialect dialect.Dialect
	// RequestedDegree is the caller's degree selector. When it names a
	// specific degree, records resolving to a different degree are
	// dropped; it is also the fallback when an item carries no degree.
	RequestedDegree model.ConnectionDegree
}

// Stats summarizes what normalization dropped or flagged.
type Stats struct {
	Dropped          int
	DegreeMismatches int
	NeedsEnrichment  int
}

// Records normalizes a batch of raw items. Items without a derivable
// first name or profile URL are dropped, as are degree mismatches when a
// specific degree was requested.
func Records(items []unipile.SearchItem, opts Options) ([]model.Prospect, Stats) {
	var stats Stats
	out := make([]model.Prospect, 0, len(items))

	for _, item := range items {
		p, ok := record(item, opts, &stats)
		if !ok {
			stats.Dropped++
			continue
		}
		out = append(out, p)
	}

	if stats.Dropped > 0 || stats.DegreeMismatches > 0 {
		zap.L().Debug("normalization complete",
			zap.String("dialect", string(opts.Dialect)),
			zap.Int("in", len(items)),
			zap.Int("out", len(out)),
			zap.Int("degree_mismatches", stats.DegreeMismatches),
		)
	}

	return out, stats
}

func record(item unipile.SearchItem, opts Options, stats *Stats) (model.Prospect, bool) {
	first, last := splitName(item)
	if first == "" {
		return model.Prospect{}, false
	}

	profileURL := canonicalProfileURL(item)
	if profileURL == "" {
		return model.Prospect{}, false
	}

	degree, found := parseDegree(item)
	if !found {
		degree = opts.RequestedDegree.Degree()
	}
	degree = clampDegree(degree)
	if opts.RequestedDegree.Specific() && degree != opts.RequestedDegree.Degree() {
		stats.DegreeMismatches++
		return model.Prospect{}, false
	}

	p := model.Prospect{
		FirstName:        first,
		LastName:         last,
		ProfileURL:       profileURL,
		ConnectionDegree: degree,
		ProviderID:       item.ID,
		PublicIdentifier: item.PublicIdentifier,
		SourceDialect:    string(opts.Dialect),
	}

	if len(item.CurrentPositions) > 0 && item.CurrentPositions[0].Role != "" {
		p.Title = CleanTitle(item.CurrentPositions[0].Role)
	} else if item.Headline != "" {
		p.Title = CleanHeadline(item.Headline)
	}

	// Company and industry are only trustworthy on the structured
	// dialects; classic headlines are not worth parsing, so the record
	// goes out flagged for enrichment instead.
	if opts.Dialect == dialect.Classic {
		p.NeedsEnrichment = true
		stats.NeedsEnrichment++
	} else {
		if len(item.CurrentPositions) > 0 {
			p.Company = item.CurrentPositions[0].Company
			p.Industry = item.CurrentPositions[0].Industry
		}
		if p.Industry == "" {
			p.Industry = item.Industry
		}
	}

	location := item.Location
	if location == "" {
		location = item.GeoRegion
	}
	if location == "" && len(item.CurrentPositions) > 0 {
		location = item.CurrentPositions[0].Location
	}
	p.Location = CleanLocation(location)

	return p, true
}

// splitName prefers explicit first/last fields and falls back to
// splitting a display name on its first whitespace.
func splitName(item unipile.SearchItem) (first, last string) {
	first = strings.TrimSpace(item.FirstName)
	last = strings.TrimSpace(item.LastName)
	if first != "" {
		return first, last
	}

	name := strings.TrimSpace(item.Name)
	if name == "" {
		return "", ""
	}
	parts := strings.SplitN(name, " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}

// canonicalProfileURL rewrites provider-internal URLs (sales navigator
// "/lead/", recruiter "/talent/" and "/people/" paths) to the public
// profile form when a public identifier is available.
func canonicalProfileURL(item unipile.SearchItem) string {
	url := item.PublicProfileURL
	if url == "" {
		url = item.ProfileURL
	}

	internal := url == "" ||
		strings.Contains(url, "/lead/") ||
		strings.Contains(url, "/people/") ||
		strings.Contains(url, "/talent/")
	if internal && item.PublicIdentifier != "" {
		return fmt.Sprintf("https://www.linkedin.com/in/%s", item.PublicIdentifier)
	}
	return url
}

var distanceCode = regexp.MustCompile(`(?i)distance[_\s-]?(\d)`)

// parseDegree resolves the connection degree from the three encodings
// the dialects use, in priority order: an explicit distance value, a
// single-letter network code, then the generic distance field.
func parseDegree(item unipile.SearchItem) (int, bool) {
	if d, ok := degreeValue(item.NetworkDistance); ok {
		return d, true
	}
	if d, ok := letterDegree(item.ConnectionDegree); ok {
		return d, true
	}
	if d, ok := degreeValue(item.Distance); ok {
		return d, true
	}
	return 0, false
}

// degreeValue decodes a degree carried as a JSON number or as a string
// in any of the provider's spellings ("2", "DISTANCE_2", "2nd").
func degreeValue(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if m := distanceCode.FindStringSubmatch(s); m != nil {
			n, _ := strconv.Atoi(m[1])
			return n, true
		}
		return letterDegree(s)
	default:
		return 0, false
	}
}

func letterDegree(s string) (int, bool) {
	switch d := strings.ToLower(strings.TrimSpace(s)); {
	case d == "f", strings.Contains(d, "first"), strings.Contains(d, "1st"):
		return 1, true
	case d == "s", strings.Contains(d, "second"), strings.Contains(d, "2nd"):
		return 2, true
	case d == "o", strings.Contains(d, "third"), strings.Contains(d, "3rd"):
		return 3, true
	default:
		return 0, false
	}
}

func clampDegree(d int) int {
	if d < 1 {
		return 1
	}
	if d > 3 {
		return 3
	}
	return d
}
