package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agropulse/internal/prediction"
	"github.com/JaimeStill/agropulse/pkg/formatting"
)

func newAdviseCommand(opts *options) *cobra.Command {
	in := prediction.DefaultAdvisoryInput()

	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Get the full farm advisory: fertilizer, irrigation, pests and yield",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Month < 1 || in.Month > 12 {
				return fmt.Errorf("invalid --month %d: must be 1-12", in.Month)
			}

			res, err := opts.client().Advise(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Your Farm Advisory Report")
			fmt.Fprintln(out, "Fertilizer Recommendation")
			fmt.Fprintf(out, "  Nitrogen (N):   %s kg/ha\n", formatting.Decimal(res.Fertilizer.N, 1))
			fmt.Fprintf(out, "  Phosphorus (P): %s kg/ha\n", formatting.Decimal(res.Fertilizer.P, 1))
			fmt.Fprintf(out, "  Potassium (K):  %s kg/ha\n", formatting.Decimal(res.Fertilizer.K, 1))

			irrigation := "No Watering Needed"
			if res.Irrigation.Needed != 0 {
				irrigation = "Watering Needed"
			}
			fmt.Fprintf(out, "Irrigation Status: %s\n", irrigation)

			pests := "Low Risk of Pests"
			if res.PestAlert.Alert != 0 {
				pests = "High Risk of Pests!"
			}
			fmt.Fprintf(out, "Pest Alert: %s\n", pests)

			if res.Yield != nil {
				fmt.Fprintf(out, "Yield Prediction: %s tons/ha\n", formatting.Decimal(res.Yield.Prediction, 2))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Crop, "crop", in.Crop, "crop type")
	f.StringVar(&in.GrowthStage, "growth-stage", in.GrowthStage, "growth stage")
	f.Float64Var(&in.SoilPH, "soil-ph", in.SoilPH, "soil pH")
	f.Float64Var(&in.SoilN, "soil-n", in.SoilN, "soil nitrogen (kg/ha)")
	f.Float64Var(&in.SoilP, "soil-p", in.SoilP, "soil phosphorus (kg/ha)")
	f.Float64Var(&in.SoilK, "soil-k", in.SoilK, "soil potassium (kg/ha)")
	f.Float64Var(&in.SoilMoisture, "soil-moisture", in.SoilMoisture, "soil moisture (%)")
	f.Float64Var(&in.Temperature, "temperature", in.Temperature, "temperature (°C)")
	f.Float64Var(&in.Rainfall, "rainfall", in.Rainfall, "rainfall (mm)")
	f.Float64Var(&in.Humidity, "humidity", in.Humidity, "humidity (%)")
	f.StringVar(&in.State, "state", in.State, "state")
	f.IntVar(&in.Month, "month", in.Month, "month (1-12)")
	f.StringVar(&in.SoilType, "soil-type", in.SoilType, "soil type")
	f.StringVar(&in.Variety, "variety", in.Variety, "crop variety")
	f.StringVar(&in.FarmerType, "farmer-type", in.FarmerType, "farmer type")
	f.StringVar(&in.IrrigationSystem, "irrigation-system", in.IrrigationSystem, "irrigation system")

	return cmd
}
