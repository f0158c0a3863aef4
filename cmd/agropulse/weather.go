package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JaimeStill/agropulse/internal/weather"
)

func newWeatherCommand(opts *options) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Print current conditions, at the server's default location unless --lat and --lon are set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var at *weather.Coordinates
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				at = &weather.Coordinates{Lat: lat, Lon: lon}
				if !at.Valid() {
					return fmt.Errorf("invalid coordinates %v,%v", lat, lon)
				}
			}

			c, err := opts.client().Weather(cmd.Context(), at)
			if err != nil {
				return err
			}

			title := cases.Title(language.English)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d°C, %s\n", c.City, c.Rounded(), title.String(strings.ToLower(c.Description)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	return cmd
}
