package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/agropulse/internal/client"
	"github.com/JaimeStill/agropulse/internal/prediction"
)

// fakeAPI answers the proxy routes under /api and records the last
// prediction request body.
type fakeAPI struct {
	mu       sync.Mutex
	lastBody []byte
}

func (f *fakeAPI) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.lastBody = body
	f.mu.Unlock()
}

func (f *fakeAPI) last() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/recommend-crop":
		f.record(r)
		io.WriteString(w, `{"predicted_crop":"rice","confidence":0.87}`)
	case "/api/v1/get-advisory":
		f.record(r)
		io.WriteString(w, `{"fertilizer":{"n_fertilizer":45.26,"p_fertilizer":20,"k_fertilizer":30.04},`+
			`"irrigation":{"irrigation_needed":1},"pest_alert":{"pest_alert":0},`+
			`"yield_prediction":{"yield_prediction":3.457}}`)
	case "/api/dashboard":
		io.WriteString(w, `{"leaderboard":[{"name":"Suresh K.","yield":1500},{"name":"Priya M.","yield":1450}],`+
			`"advisories":{"en":"Expect light showers."}}`)
	case "/api/v1/achievements":
		io.WriteString(w, `{"level":5,"xp":1250,"xp_next_level":2000,"rank":5,`+
			`"quests":[{"text":"Irrigate the maize field","completed":true},{"text":"Check for pests"}]}`)
	case "/api/v1/weather":
		city := "Bhubaneswar"
		if r.URL.Query().Get("lat") != "" {
			city = "Cuttack"
		}
		io.WriteString(w, `{"city":"`+city+`","temperature_c":29.6,"description":"light rain"}`)
	default:
		http.NotFound(w, r)
	}
}

func run(t *testing.T, api string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--api", api))
	err := cmd.Execute()
	return out.String(), err
}

func TestRecommend(t *testing.T) {
	fake := &fakeAPI{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := run(t, srv.URL+"/api", "recommend", "--n", "100", "--rainfall", "150")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}

	for _, want := range []string{"rice", "Confidence: 87.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var got prediction.CropQuery
	if err := json.Unmarshal(fake.last(), &got); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	want := prediction.DefaultCropQuery()
	want.N = 100
	want.Rainfall = 150
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestAdvise(t *testing.T) {
	fake := &fakeAPI{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := run(t, srv.URL+"/api", "advise", "--crop", "wheat", "--month", "3")
	if err != nil {
		t.Fatalf("advise: %v", err)
	}

	for _, want := range []string{
		"Nitrogen (N):   45.3 kg/ha",
		"Potassium (K):  30.0 kg/ha",
		"Irrigation Status: Watering Needed",
		"Pest Alert: Low Risk of Pests",
		"Yield Prediction: 3.46 tons/ha",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	var got prediction.AdvisoryInput
	if err := json.Unmarshal(fake.last(), &got); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if got.Crop != "wheat" || got.Month != 3 || got.Variety != "basmati" {
		t.Errorf("request: got %+v", got)
	}
}

func TestAdviseRejectsMonth(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:0/api", "advise", "--month", "13")
	if err == nil || !strings.Contains(err.Error(), "--month") {
		t.Errorf("error: got %v, want month validation", err)
	}
}

func TestDashboard(t *testing.T) {
	srv := httptest.NewServer(&fakeAPI{})
	defer srv.Close()

	out, err := run(t, srv.URL+"/api", "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	for _, want := range []string{
		"Level 5  1250 / 2000 XP  Rank #5",
		"[x] Irrigate the maize field",
		"[ ] Check for pests",
		"Suresh K.",
		"[en] Expect light showers.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWeather(t *testing.T) {
	srv := httptest.NewServer(&fakeAPI{})
	defer srv.Close()

	out, err := run(t, srv.URL+"/api", "weather")
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	if want := "Bhubaneswar: 30°C, Light Rain\n"; out != want {
		t.Errorf("output: got %q, want %q", out, want)
	}

	out, err = run(t, srv.URL+"/api", "weather", "--lat", "20.46", "--lon", "85.88")
	if err != nil {
		t.Fatalf("weather at coordinates: %v", err)
	}
	if !strings.HasPrefix(out, "Cuttack") {
		t.Errorf("output: got %q, want located conditions", out)
	}

	if _, err := run(t, srv.URL+"/api", "weather", "--lat", "95"); err == nil {
		t.Error("expected invalid coordinates error")
	}
}

func TestBackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(&fakeAPI{})
	url := srv.URL + "/api"
	srv.Close()

	_, err := run(t, url, "recommend")
	if !errors.Is(err, client.ErrBackendUnavailable) {
		t.Errorf("error: got %v, want ErrBackendUnavailable", err)
	}
}
