package dashboard_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/agropulse/internal/dashboard"
	"github.com/JaimeStill/agropulse/pkg/routes"
)

const wantSnapshot = `{"leaderboard":[{"name":"Suresh K.","yield":1500},{"name":"Priya M.","yield":1450}],"advisories":{"en":"Weather alert: Expect light showers this afternoon."}}`

func newMux(t *testing.T) *http.ServeMux {
	t.Helper()
	sys, err := dashboard.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())
	return mux
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestDashboardIsByteIdentical(t *testing.T) {
	mux := newMux(t)

	for i := range 3 {
		rec := get(mux, "/dashboard")
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status: got %d, want 200", i, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type: got %s", ct)
		}
		if got := rec.Body.String(); got != wantSnapshot {
			t.Errorf("call %d body:\n got %s\nwant %s", i, got, wantSnapshot)
		}
	}
}

func TestDashboardRejectsPost(t *testing.T) {
	rec := httptest.NewRecorder()
	newMux(t).ServeHTTP(rec, httptest.NewRequest("POST", "/dashboard", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}

func TestAchievements(t *testing.T) {
	rec := get(newMux(t), "/v1/achievements")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var got dashboard.Achievements
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.Level != 5 || got.XP != 1250 || got.XPNextLevel != 2000 || got.Rank != 5 {
		t.Errorf("progress: got level %d xp %d/%d rank %d", got.Level, got.XP, got.XPNextLevel, got.Rank)
	}
	if p := got.Progress(); p != 0.625 {
		t.Errorf("progress fraction: got %v, want 0.625", p)
	}

	quests := make([]string, len(got.Quests))
	for i, q := range got.Quests {
		quests[i] = q.Text
	}
	want := []string{"Irrigate the maize field", "Apply fertilizer to rice paddy", "Check for pests"}
	if diff := cmp.Diff(want, quests); diff != "" {
		t.Errorf("quests mismatch (-want +got):\n%s", diff)
	}

	earned := map[string]bool{}
	for _, b := range got.Badges {
		earned[b.Title] = b.Earned
	}
	wantEarned := map[string]bool{"First Harvest": true, "Water Saver": false, "Pest Pro": true}
	if diff := cmp.Diff(wantEarned, earned); diff != "" {
		t.Errorf("badges mismatch (-want +got):\n%s", diff)
	}
}
