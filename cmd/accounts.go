package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/innovareai/sam-prospector/internal/account"
	"github.com/innovareai/sam-prospector/internal/model"
	"github.com/innovareai/sam-prospector/pkg/unipile"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List LinkedIn accounts connected at the provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("accounts"); err != nil {
			return err
		}

		client, err := unipile.NewClient(cfg.Unipile.APIKey, cfg.Unipile.DSN)
		if err != nil {
			return err
		}

		accounts, err := client.ListAccounts(ctx)
		if err != nil {
			return eris.Wrap(err, "list accounts")
		}

		type row struct {
			ID       string               `json:"id"`
			Name     string               `json:"name"`
			Type     string               `json:"type"`
			Tier     model.CapabilityTier `json:"tier"`
			Features []string             `json:"premium_features,omitempty"`
		}
		rows := make([]row, 0, len(accounts))
		for _, a := range accounts {
			rows = append(rows, row{
				ID:       a.ID,
				Name:     a.Name,
				Type:     a.Type,
				Tier:     account.TierOf(a),
				Features: a.ConnectionParams.IM.PremiumFeatures,
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}
