package app

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/agropulse/internal/client"
	"github.com/JaimeStill/agropulse/internal/dashboard"
	"github.com/JaimeStill/agropulse/internal/weather"
)

const (
	dashboardFailure = "Failed to get dashboard data. Please check that the backend server is running."
	weatherFallback  = "Location permission denied. Showing default weather."
	weatherFailure   = "Could not fetch weather data."
)

// Feature is a landing page card.
type Feature struct {
	Icon        string
	Title       string
	Description string
	Upcoming    bool
}

var landingFeatures = []Feature{
	{Icon: "brain", Title: "AI Crop Advisor", Description: "Get the best crop recommendation based on your soil and weather."},
	{Icon: "language", Title: "Multilingual & Voice", Description: "Use in English, Hindi, or Odia. Voice assistance is available."},
	{Icon: "gamepad", Title: "Gamified Dashboard", Description: "Earn badges and climb the leaderboard with best farming practices."},
	{Icon: "store", Title: "Marketplace Link", Description: "Connect with buyers and get the best price for your harvest.", Upcoming: true},
	{Icon: "bug-slash", Title: "Pest Detection", Description: "Use your phone's camera to identify and get solutions for crop diseases.", Upcoming: true},
	{Icon: "chart-simple", Title: "Yield Tracking", Description: "Log your harvest data and get insights to improve for next season.", Upcoming: true},
}

type dashboardPage struct {
	Weather      *weather.Conditions
	WeatherNote  string
	Achievements *dashboard.Achievements
	Snapshot     *dashboard.Snapshot
	Advisory     string
	Alert        string
}

// dashboard loads the snapshot, achievements and weather concurrently. A
// weather failure only affects the weather card.
func (a *App) dashboard(w http.ResponseWriter, r *http.Request) {
	at, _ := weather.CoordinatesFromQuery(r.URL.Query())

	var page dashboardPage
	var weatherErr error

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		s, err := a.api.Dashboard(ctx)
		page.Snapshot = s
		return err
	})
	g.Go(func() error {
		ach, err := a.api.Achievements(ctx)
		page.Achievements = ach
		return err
	})
	g.Go(func() error {
		page.Weather, weatherErr = a.api.Weather(r.Context(), at)
		return nil
	})

	status := http.StatusOK
	if err := g.Wait(); err != nil {
		a.logger.Warn("dashboard load failed", "error", err)
		page.Alert = failureMessage(err, dashboardFailure)
		status = http.StatusBadGateway
	}

	switch {
	case weatherErr != nil:
		a.logger.Warn("weather load failed", "error", weatherErr)
		page.WeatherNote = failureMessage(weatherErr, weatherFailure)
	case page.Weather != nil && page.Weather.Fallback:
		page.WeatherNote = weatherFallback
	}

	if page.Snapshot != nil {
		page.Advisory = page.Snapshot.Advisories["en"]
	}

	a.render(w, r, status, dashboardView, page)
}

// failureMessage returns the proxy's message for an API error and fallback
// for anything else, such as an unreachable proxy.
func failureMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
