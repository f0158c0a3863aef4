package api

import (
	"maps"
	"net/http"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/pkg/openapi"
)

var relayFailures = map[int]*openapi.Response{
	http.StatusBadRequest:            openapi.ResponseRef("BadRequest"),
	http.StatusRequestEntityTooLarge: openapi.ResponseRef("PayloadTooLarge"),
	http.StatusInternalServerError:   openapi.ResponseRef("UpstreamFailure"),
}

func withFailures(ok *openapi.Response) map[int]*openapi.Response {
	out := map[int]*openapi.Response{http.StatusOK: ok}
	maps.Copy(out, relayFailures)
	return out
}

// NewSpec describes the API module's routes as an OpenAPI document.
func NewSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"CropQuery": openapi.Object("Soil and weather reading", map[string]*openapi.Schema{
			"N":           openapi.Number("Nitrogen (kg/ha)", 90),
			"P":           openapi.Number("Phosphorus (kg/ha)", 42),
			"K":           openapi.Number("Potassium (kg/ha)", 43),
			"temperature": openapi.Number("Temperature (°C)", 20.8),
			"humidity":    openapi.Number("Relative humidity (%)", 82),
			"ph":          openapi.Number("Soil pH", 6.5),
			"rainfall":    openapi.Number("Rainfall (mm)", 202),
		}),
		"CropRecommendation": openapi.Object("Best crop for the reading", map[string]*openapi.Schema{
			"predicted_crop": openapi.String("Crop name", "rice"),
			"confidence":     openapi.Number("Confidence between 0 and 1", 0.87),
		}),
		"AdvisoryInput": openapi.Object("Farm observation", map[string]*openapi.Schema{
			"crop":              openapi.String("Crop type", "rice"),
			"growth_stage":      openapi.String("Growth stage", "flowering"),
			"soil_ph":           openapi.Number("Soil pH", 6.5),
			"soil_n":            openapi.Number("Soil nitrogen (kg/ha)", 85.2),
			"soil_p":            openapi.Number("Soil phosphorus (kg/ha)", 42.1),
			"soil_k":            openapi.Number("Soil potassium (kg/ha)", 120.5),
			"soil_moisture":     openapi.Number("Soil moisture (%)", 75.3),
			"temperature":       openapi.Number("Temperature (°C)", 28.5),
			"rainfall":          openapi.Number("Rainfall (mm)", 12.3),
			"humidity":          openapi.Number("Humidity (%)", 78.2),
			"state":             openapi.String("State", "punjab"),
			"month":             {Type: "integer", Description: "Month (1-12)", Example: 7},
			"soil_type":         openapi.String("Soil type", "loam"),
			"variety":           openapi.String("Crop variety", "basmati"),
			"farmer_type":       openapi.String("Farmer type", "progressive"),
			"irrigation_system": openapi.String("Irrigation system", "drip"),
		}),
		"AdvisoryResult": {
			Type:        "object",
			Description: "Combined advisory",
			Required:    []string{"fertilizer", "irrigation", "pest_alert"},
			Properties: map[string]*openapi.Schema{
				"fertilizer": openapi.Object("Recommended dose", map[string]*openapi.Schema{
					"n_fertilizer": openapi.Number("Nitrogen (kg/ha)", 45.2),
					"p_fertilizer": openapi.Number("Phosphorus (kg/ha)", 20),
					"k_fertilizer": openapi.Number("Potassium (kg/ha)", 30),
				}),
				"irrigation": openapi.Object("Irrigation need", map[string]*openapi.Schema{
					"irrigation_needed": {Type: "integer", Description: "1 when watering is needed", Enum: []any{0, 1}},
				}),
				"pest_alert": openapi.Object("Pest risk", map[string]*openapi.Schema{
					"pest_alert": {Type: "integer", Description: "1 when the pest risk is high", Enum: []any{0, 1}},
				}),
				"yield_prediction": openapi.Object("Predicted yield, absent when the service has no model for the crop", map[string]*openapi.Schema{
					"yield_prediction": openapi.Number("Yield (tons/ha)", 3.46),
				}),
			},
		},
		"DashboardSnapshot": openapi.Object("Leaderboard and advisories", map[string]*openapi.Schema{
			"leaderboard": openapi.ArrayOf("LeaderboardEntry"),
			"advisories":  {Type: "object", Description: "Advisory text keyed by language code"},
		}),
		"LeaderboardEntry": openapi.Object("Leaderboard row", map[string]*openapi.Schema{
			"name":  openapi.String("Farmer", "Suresh K."),
			"yield": {Type: "integer", Description: "Yield", Example: 1500},
		}),
		"Achievements": openapi.Object("Level progress, quests and badges", map[string]*openapi.Schema{
			"level":         {Type: "integer", Example: 5},
			"xp":            {Type: "integer", Example: 1250},
			"xp_next_level": {Type: "integer", Example: 2000},
			"rank":          {Type: "integer", Example: 5},
			"quests":        {Type: "array", Items: &openapi.Schema{Type: "object"}},
			"badges":        {Type: "array", Items: &openapi.Schema{Type: "object"}},
		}),
		"Conditions": openapi.Object("Current weather", map[string]*openapi.Schema{
			"city":          openapi.String("City", "Bhubaneswar"),
			"temperature_c": openapi.Number("Temperature (°C)", 29.6),
			"description":   openapi.String("Description", "light rain"),
			"icon_id":       {Type: "integer", Description: "Provider condition code", Example: 500},
			"fallback":      {Type: "boolean", Description: "True when the default location was used"},
		}),
	})

	spec.Paths["/v1/recommend-crop"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Recommend a crop",
			Description: "Relays the reading to the simple prediction service and returns its answer unchanged.",
			Tags:        []string{"Prediction"},
			RequestBody: openapi.RequestBodyJSON("CropQuery", true),
			Responses:   withFailures(openapi.ResponseJSON("Crop recommendation", "CropRecommendation")),
		},
	}
	spec.Paths["/v1/get-advisory"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Get the farm advisory",
			Description: "Relays the observation to the advanced prediction service and returns its answer unchanged.",
			Tags:        []string{"Prediction"},
			RequestBody: openapi.RequestBodyJSON("AdvisoryInput", true),
			Responses:   withFailures(openapi.ResponseJSON("Advisory", "AdvisoryResult")),
		},
	}
	spec.Paths["/dashboard"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:   "Dashboard snapshot",
			Tags:      []string{"Dashboard"},
			Responses: map[int]*openapi.Response{http.StatusOK: openapi.ResponseJSON("Snapshot", "DashboardSnapshot")},
		},
	}
	spec.Paths["/v1/achievements"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:   "Achievements",
			Tags:      []string{"Dashboard"},
			Responses: map[int]*openapi.Response{http.StatusOK: openapi.ResponseJSON("Achievements", "Achievements")},
		},
	}
	spec.Paths["/v1/weather"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Current weather",
			Description: "Uses the configured fallback location unless both lat and lon are given.",
			Tags:        []string{"Weather"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("lat", "number", "Latitude", false),
				openapi.QueryParam("lon", "number", "Longitude", false),
			},
			Responses: map[int]*openapi.Response{
				http.StatusOK:                 openapi.ResponseJSON("Conditions", "Conditions"),
				http.StatusBadRequest:         openapi.ResponseRef("BadRequest"),
				http.StatusBadGateway:         openapi.ResponseRef("BadGateway"),
				http.StatusServiceUnavailable: openapi.ResponseRef("ServiceUnavailable"),
			},
		},
	}

	return spec
}
