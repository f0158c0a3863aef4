package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/agropulse/internal/client"
	"github.com/JaimeStill/agropulse/internal/prediction"
	"github.com/JaimeStill/agropulse/internal/weather"
)

func TestRecommendCrop(t *testing.T) {
	var got map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/recommend-crop" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"predicted_crop":"rice","confidence":0.87}`)
	}))
	defer srv.Close()

	c := client.New(srv.URL+"/api/", srv.Client())
	rec, err := c.RecommendCrop(context.Background(), prediction.DefaultCropQuery())
	if err != nil {
		t.Fatal(err)
	}

	want := &prediction.CropRecommendation{PredictedCrop: "rice", Confidence: 0.87}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if got["N"] != 90 || got["rainfall"] != 202 {
		t.Errorf("request body = %v", got)
	}
}

func TestAPIErrorCarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(prediction.ErrorCategoryHeader, "timeout")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"Error from advanced prediction service."}`)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL, srv.Client()).Advise(context.Background(), prediction.DefaultAdvisoryInput())

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	want := &client.APIError{Status: 500, Message: "Error from advanced prediction service.", Category: "timeout"}
	if diff := cmp.Diff(want, apiErr); diff != "" {
		t.Errorf("APIError mismatch (-want +got):\n%s", diff)
	}
}

func TestBackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, nil).Dashboard(context.Background())
	if !errors.Is(err, client.ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestWeatherQuery(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		io.WriteString(w, `{"city":"Pune","temperature_c":27.6,"description":"haze","icon_id":721,"fallback":false}`)
	}))
	defer srv.Close()

	c := client.New(srv.URL, srv.Client())

	cond, err := c.Weather(context.Background(), &weather.Coordinates{Lat: 18.52, Lon: 73.85})
	if err != nil {
		t.Fatal(err)
	}
	if query != "lat=18.52&lon=73.85" {
		t.Errorf("query = %q", query)
	}
	if cond.City != "Pune" || cond.Rounded() != 28 {
		t.Errorf("conditions = %+v", cond)
	}

	if _, err := c.Weather(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if query != "" {
		t.Errorf("fallback query = %q, want empty", query)
	}
}
