package dialect

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/model"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

// Report carries the degradation outcomes of a translation: filters that
// fell back to keyword search and criteria the dialect cannot express.
type Report struct {
	Warnings            []string
	UnsupportedCriteria []string
}

// Translator converts canonical criteria into a dialect payload,
// resolving named filters to provider IDs where the dialect supports it.
type Translator struct {
	resolver Resolver
	cfg      Config
}

// NewTranslator creates a Translator.
func NewTranslator(resolver Resolver, cfg Config) *Translator {
	return &Translator{resolver: resolver, cfg: cfg}
}

// namedFilter pairs a criteria field with its lookup type.
type namedFilter struct {
	name string
	text string
	typ  unipile.ParameterType
	dst  *[]string
}

// Translate builds the payload for the account's dialect. Named filters
// that cannot be resolved degrade to keyword terms with a warning; only
// structurally unusable criteria are an error.
func (t *Translator) Translate(ctx context.Context, account model.Account, c model.SearchCriteria) (*Payload, *Report, error) {
	d := For(account.Tier)
	log := zap.L().With(zap.String("dialect", string(d)), zap.String("account", account.ProviderAccountID))
	report := &Report{}

	category := c.Category
	if category == "" {
		category = model.CategoryPeople
	}

	p := &Payload{
		Dialect:  d,
		Category: category,
		Degrees:  c.ConnectionDegree.Degrees(),
	}

	// Keyword terms accumulate the free-text fields plus any filter that
	// ends up expressed as text instead of an ID.
	var terms []string
	if c.Title != "" {
		terms = append(terms, c.Title)
	}
	if c.Keywords != "" {
		terms = append(terms, c.Keywords)
	}

	filters := []namedFilter{
		{"location", c.Location, unipile.ParamLocation, &p.LocationIDs},
		{"company", c.Company, unipile.ParamCompany, &p.CompanyIDs},
		{"industry", c.Industry, unipile.ParamIndustry, &p.IndustryIDs},
		{"school", c.School, unipile.ParamSchool, &p.SchoolIDs},
	}

	for _, f := range filters {
		if f.text == "" {
			continue
		}

		// Classic never attempts ID lookups; every named filter becomes
		// an extra keyword term.
		if d == Classic {
			terms = append(terms, f.text)
			continue
		}

		ids, err := t.resolver.Resolve(ctx, account.ProviderAccountID, f.typ, f.text)
		if err != nil {
			log.Warn("filter lookup failed, falling back to keywords",
				zap.String("filter", f.name), zap.Error(err))
			ids = nil
		}
		if len(ids) == 0 {
			terms = append(terms, f.text)
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("could not resolve %s filter %q; matching as keywords instead", f.name, f.text))
			continue
		}
		*f.dst = ids
	}

	if c.YearsOfExperience != "" {
		exp, err := ParseExperience(c.YearsOfExperience)
		if err != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("ignoring invalid years_of_experience %q", c.YearsOfExperience))
		} else if d == Classic {
			report.UnsupportedCriteria = append(report.UnsupportedCriteria, "years_of_experience")
		} else {
			p.Experience = exp
		}
	}

	// Search method priority: saved search beats keywords beats raw URL.
	keywords := strings.Join(terms, " ")
	switch {
	case c.SavedSearchID != "":
		p.SavedSearchID = c.SavedSearchID
	case keywords != "":
		p.Keywords = keywords
	case c.URL != "":
		p.URL = c.URL
	default:
		return nil, nil, eris.New("dialect: criteria require keywords, a saved search id, or a search url")
	}

	return p, report, nil
}
