package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/bulkbuddy/internal/mtg/scryfall"
	"github.com/ramonehamilton/bulkbuddy/internal/service"
)

var importCardCmd = &cobra.Command{
	Use:   "import-card SCRYFALL_ID...",
	Short: "Import cards from Scryfall into the catalog",
	Long:  "Import fetches each Scryfall ID and adds it to the shared catalog. Cards already present are skipped.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Close() }()

		store, err := openStorage(cmd.Context(), cfg, cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		services := service.New(service.Deps{
			Store: store,
			Provider: scryfall.NewClient(
				scryfall.WithBaseURL(cfg.Scryfall.BaseURL),
				scryfall.WithUserAgent(cfg.Scryfall.UserAgent),
				scryfall.WithRateLimit(cfg.GetScryfallRateLimit()),
				scryfall.WithTimeout(cfg.GetScryfallTimeout()),
				scryfall.WithLogger(log.Named("scryfall")),
			),
			Logger: log.Logger,
		})

		failed := 0
		for _, id := range args {
			card, err := services.Catalog.EnsureFromScryfall(cmd.Context(), id)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", id, service.PublicMessage(err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%s)\n", card.ID, card.Name, card.SetName)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d cards failed to import", failed, len(args))
		}
		return nil
	},
}
