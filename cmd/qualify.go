package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
	"github.com/xpanddigital/cratehq-enrich/internal/store"
	"github.com/xpanddigital/cratehq-enrich/internal/valuation"
)

var (
	qualifyAll   bool
	qualifyForce bool
)

// qualifyCmd values catalogs and runs the qualification cascade, either for
// one artist or for every pending one.
var qualifyCmd = &cobra.Command{
	Use:   "qualify [artist-id]",
	Short: "Value and qualify artists for acquisition outreach",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if len(args) == 0 && !qualifyAll {
			return cmd.Help()
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rules := loadRules()

		var artists []model.Artist
		if len(args) == 1 {
			a, err := st.GetArtist(ctx, args[0])
			if err != nil {
				return err
			}
			artists = []model.Artist{*a}
		} else {
			artists, err = st.ListArtists(ctx, store.ArtistFilter{
				QualificationStatus: model.QualificationPending,
				Limit:               10000,
			})
			if err != nil {
				return err
			}
		}

		applied, frozen := 0, 0
		for i := range artists {
			a := &artists[i]
			decision, changed := valuation.ValuateAndQualify(a, rules, qualifyForce)
			if !changed {
				frozen++
				continue
			}
			if err := st.UpdateArtist(ctx, a); err != nil {
				return err
			}
			applied++
			zap.L().Info("artist qualified",
				zap.String("artist_id", a.ID),
				zap.String("status", string(decision.Status)),
				zap.String("reason", decision.Reason),
				zap.Float64("offer_usd", a.EstimatedOfferUSD),
			)
		}

		zap.L().Info("qualification pass finished",
			zap.Int("applied", applied),
			zap.Int("skipped_manual_override", frozen),
		)
		return nil
	},
}

func init() {
	qualifyCmd.Flags().BoolVar(&qualifyAll, "all", false, "qualify every pending artist")
	qualifyCmd.Flags().BoolVar(&qualifyForce, "force", false, "recompute even with a manual override")
	rootCmd.AddCommand(qualifyCmd)
}
