package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/agropulse/internal/client"
)

const defaultAPI = "http://localhost:5000/api"

type options struct {
	api     string
	timeout time.Duration
}

func (o *options) client() *client.Client {
	return client.New(o.api, &http.Client{Timeout: o.timeout})
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "agropulse",
		Short:         "Crop recommendations and farm advisories from the AgroPulse API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.api, "api", defaultAPI, "base URL of the AgroPulse API")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(
		newRecommendCommand(opts),
		newAdviseCommand(opts),
		newDashboardCommand(opts),
		newWeatherCommand(opts),
	)

	return cmd
}
