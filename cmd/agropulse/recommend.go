package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agropulse/internal/prediction"
	"github.com/JaimeStill/agropulse/pkg/formatting"
)

func newRecommendCommand(opts *options) *cobra.Command {
	q := prediction.DefaultCropQuery()

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend the best crop for a soil and weather reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := opts.client().RecommendCrop(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Recommended Crop")
			fmt.Fprintf(out, "  %s\n", rec.PredictedCrop)
			fmt.Fprintf(out, "  Confidence: %s\n", formatting.Percent(rec.Confidence, 1))
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&q.N, "n", q.N, "nitrogen (kg/ha)")
	f.Float64Var(&q.P, "p", q.P, "phosphorus (kg/ha)")
	f.Float64Var(&q.K, "k", q.K, "potassium (kg/ha)")
	f.Float64Var(&q.Temperature, "temperature", q.Temperature, "temperature (°C)")
	f.Float64Var(&q.Humidity, "humidity", q.Humidity, "relative humidity (%)")
	f.Float64Var(&q.PH, "ph", q.PH, "soil pH")
	f.Float64Var(&q.Rainfall, "rainfall", q.Rainfall, "rainfall (mm)")

	return cmd
}
