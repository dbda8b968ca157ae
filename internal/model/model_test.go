package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProspectFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Prospect{FirstName: "Ada", LastName: "Lovelace"}.FullName())
	assert.Equal(t, "Ada", Prospect{FirstName: "Ada"}.FullName())
}

func TestHasKeywordSearch(t *testing.T) {
	assert.True(t, SearchCriteria{Keywords: "fintech"}.HasKeywordSearch())
	assert.True(t, SearchCriteria{Title: "CTO"}.HasKeywordSearch())
	assert.True(t, SearchCriteria{SavedSearchID: "ss-1"}.HasKeywordSearch())
	assert.False(t, SearchCriteria{URL: "https://www.linkedin.com/search"}.HasKeywordSearch())
	assert.False(t, SearchCriteria{Location: "Berlin"}.HasKeywordSearch())
	assert.False(t, SearchCriteria{}.HasKeywordSearch())
}

func TestParseConnectionDegree(t *testing.T) {
	assert.Equal(t, DegreeFirst, ParseConnectionDegree("1st"))
	assert.Equal(t, DegreeSecond, ParseConnectionDegree("second"))
	assert.Equal(t, DegreeThird, ParseConnectionDegree("3"))
	assert.Equal(t, DegreeAll, ParseConnectionDegree(""))
	assert.Equal(t, DegreeAll, ParseConnectionDegree("everything"))
}

func TestConnectionDegreeSelectors(t *testing.T) {
	assert.Equal(t, []int{2}, DegreeSecond.Degrees())
	assert.Equal(t, []int{1, 2, 3}, DegreeAll.Degrees())
	assert.True(t, DegreeSecond.Specific())
	assert.False(t, DegreeAll.Specific())
	assert.Equal(t, 2, DegreeSecond.Degree())
	assert.Equal(t, 0, DegreeAll.Degree())
}
