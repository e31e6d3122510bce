package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/xpanddigital/cratehq-enrich/internal/enrich"
)

// enrichCmd runs the discovery pipeline for one artist outside the queue,
// for spot checks and reprocessing.
var enrichCmd = &cobra.Command{
	Use:   "enrich <artist-id>",
	Short: "Run contact discovery for a single artist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		artist, err := st.GetArtist(ctx, args[0])
		if err != nil {
			return err
		}

		p := initPipeline()
		res, err := p.Enrich(ctx, artist)
		if err != nil {
			return err
		}

		enrich.ApplyResult(artist, res)
		if err := st.UpdateArtist(ctx, artist); err != nil {
			return err
		}
		if err := st.InsertEnrichmentLog(ctx, artist.ID, "", res); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
