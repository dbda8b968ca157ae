package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/innovareai/sam-prospector/internal/model"
)

var (
	searchUserID      string
	searchWorkspaceID string
	searchKeywords    string
	searchTitle       string
	searchURL         string
	searchSavedSearch string
	searchLocation    string
	searchCompany     string
	searchIndustry    string
	searchSchool      string
	searchExperience  string
	searchDegree      string
	searchCategory    string
	searchCampaign    string
	searchTarget      int
	searchMaxPages    int
	searchFetchAll    bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a prospect search for a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("search"); err != nil {
			return err
		}

		e, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		req := model.SearchRequest{
			UserID:      searchUserID,
			WorkspaceID: searchWorkspaceID,
			Criteria: model.SearchCriteria{
				Keywords:          searchKeywords,
				Title:             searchTitle,
				URL:               searchURL,
				SavedSearchID:     searchSavedSearch,
				Location:          searchLocation,
				Company:           searchCompany,
				Industry:          searchIndustry,
				School:            searchSchool,
				YearsOfExperience: searchExperience,
				ConnectionDegree:  model.ParseConnectionDegree(searchDegree),
				Category:          model.Category(searchCategory),
				CampaignName:      searchCampaign,
				TargetCount:       searchTarget,
				MaxPages:          searchMaxPages,
				FetchAll:          searchFetchAll,
			},
		}

		c := req.Criteria
		if !c.HasKeywordSearch() && c.URL == "" && c.Location == "" &&
			c.Company == "" && c.Industry == "" && c.School == "" {
			return eris.New("at least one search criterion is required (keywords, title, saved search, url or a named filter)")
		}

		result, err := e.Pipeline.Run(ctx, req)
		if err != nil {
			return eris.Wrap(err, "search run")
		}

		zap.L().Info("search finished",
			zap.Int("count", result.Count),
			zap.Int("total_found", result.TotalFound),
			zap.Int("pages_fetched", result.PagesFetched),
			zap.String("batch_id", result.BatchID),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchUserID, "user", "", "user ID running the search (required)")
	searchCmd.Flags().StringVar(&searchWorkspaceID, "workspace", "", "workspace ID (required)")
	searchCmd.Flags().StringVar(&searchKeywords, "keywords", "", "free-text keywords")
	searchCmd.Flags().StringVar(&searchTitle, "title", "", "job title keywords")
	searchCmd.Flags().StringVar(&searchURL, "search-url", "", "raw LinkedIn search URL fallback")
	searchCmd.Flags().StringVar(&searchSavedSearch, "saved-search", "", "provider saved-search ID")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "location filter text")
	searchCmd.Flags().StringVar(&searchCompany, "company", "", "company filter text")
	searchCmd.Flags().StringVar(&searchIndustry, "industry", "", "industry filter text")
	searchCmd.Flags().StringVar(&searchSchool, "school", "", "school filter text")
	searchCmd.Flags().StringVar(&searchExperience, "experience", "", `years of experience ("3-5", "5+", "4")`)
	searchCmd.Flags().StringVar(&searchDegree, "degree", "all", "connection degree (1st|2nd|3rd|all)")
	searchCmd.Flags().StringVar(&searchCategory, "category", "people", "search category (people|company)")
	searchCmd.Flags().StringVar(&searchCampaign, "campaign", "", "custom campaign name")
	searchCmd.Flags().IntVar(&searchTarget, "target", 0, "target result count (0 = dialect cap)")
	searchCmd.Flags().IntVar(&searchMaxPages, "max-pages", 0, "page budget (0 = config default)")
	searchCmd.Flags().BoolVar(&searchFetchAll, "fetch-all", false, "fetch multiple pages up to the cap")
	_ = searchCmd.MarkFlagRequired("user")
	_ = searchCmd.MarkFlagRequired("workspace")
	rootCmd.AddCommand(searchCmd)
}
