package api

import (
	"net/http"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/pkg/openapi"
	"github.com/JaimeStill/agropulse/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	spec []byte,
) []string {
	return routes.Register(
		mux,
		routes.Group{
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/openapi.json", Handler: openapi.ServeSpec(spec)},
			},
		},
		domain.Prediction.Handler(cfg.API.MaxBodySizeBytes()).Routes(),
		domain.Dashboard.Handler().Routes(),
		domain.Weather.Handler().Routes(),
	)
}
