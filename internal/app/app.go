// Package app serves the server-rendered AgroPulse pages: the public landing
// and login pages and the session-gated application under /app.
package app

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JaimeStill/agropulse/internal/client"
	"github.com/JaimeStill/agropulse/internal/session"
	"github.com/JaimeStill/agropulse/pkg/formatting"
	"github.com/JaimeStill/agropulse/pkg/web"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layout = "app"

var (
	landingView    = web.ViewDef{Route: "/{$}", Template: "landing.html", Title: "Smart Farming, Bountiful Harvests"}
	loginView      = web.ViewDef{Route: "/login", Template: "login.html", Title: "Login"}
	dashboardView  = web.ViewDef{Route: "/app", Template: "dashboard.html", Title: "Dashboard"}
	cropFinderView = web.ViewDef{Route: "/app/crop-finder", Template: "crop-finder.html", Title: "Crop Finder"}
	advisoryView   = web.ViewDef{Route: "/app/advisory", Template: "advisory.html", Title: "Farm Advisory"}
	notFoundView   = web.ViewDef{Template: "not-found.html", Title: "Not Found"}
)

var allViews = []web.ViewDef{
	landingView,
	loginView,
	dashboardView,
	cropFinderView,
	advisoryView,
	notFoundView,
}

// App renders the pages and drives each browser's form lifecycles against
// the proxy API.
type App struct {
	api       *client.Client
	templates *web.TemplateSet
	paths     session.Paths
	logger    *slog.Logger
}

// New parses the embedded templates and returns an App that calls api.
func New(api *client.Client, paths session.Paths, logger *slog.Logger) (*App, error) {
	ts, err := web.NewTemplateSet(
		templateFS,
		"templates/layouts/*.html",
		"templates/views",
		"",
		funcs(),
		allViews,
	)
	if err != nil {
		return nil, err
	}

	return &App{
		api:       api,
		templates: ts,
		paths:     paths,
		logger:    logger.With("module", "app"),
	}, nil
}

// Handler returns the page router. Unknown paths render the not-found page.
func (a *App) Handler() http.Handler {
	r := web.NewRouter(a.templates.ErrorHandler(layout, notFoundView, http.StatusNotFound))

	r.HandleFunc("GET "+landingView.Route, a.landing)

	r.HandleFunc("GET "+a.paths.Login, a.loginPage)
	r.HandleFunc("POST "+a.paths.Login, a.login)
	r.HandleFunc("POST "+a.paths.Logout, a.logout)

	r.HandleFunc("GET "+dashboardView.Route, a.dashboard)
	r.HandleFunc("GET "+dashboardView.Route+"/{$}", a.dashboard)

	r.HandleFunc("GET "+cropFinderView.Route, a.cropFinder)
	r.HandleFunc("POST "+cropFinderView.Route, a.submitCrop)
	r.HandleFunc("POST "+cropFinderView.Route+"/reset", a.resetCrop)

	r.HandleFunc("GET "+advisoryView.Route, a.advisory)
	r.HandleFunc("POST "+advisoryView.Route, a.submitAdvisory)
	r.HandleFunc("POST "+advisoryView.Route+"/reset", a.resetAdvisory)

	return r
}

// Static serves the embedded stylesheet and images under /static/.
func Static() http.Handler {
	return web.DistServer(staticFS, "static", "/static/")
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, view web.ViewDef, data any) {
	vd := web.ViewData{
		Title: view.Title,
		Path:  r.URL.Path,
		Data:  data,
	}
	if u, ok := session.User(r.Context()); ok {
		vd.User = u.DisplayName()
	}

	if err := a.templates.Render(w, status, layout, view.Template, vd); err != nil {
		a.logger.Error("render failed", "view", view.Template, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (a *App) landing(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, landingView, landingFeatures)
}

// gate returns the browser's gate, redirecting to the login page when the
// request did not pass through the session middleware.
func (a *App) gate(w http.ResponseWriter, r *http.Request) (*session.Gate, bool) {
	g, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, a.paths.Login, http.StatusSeeOther)
	}
	return g, ok
}

func funcs() template.FuncMap {
	title := cases.Title(language.English)
	return template.FuncMap{
		"percent": func(f float64) string { return formatting.Percent(f, 1) },
		"decimal": formatting.Decimal,
		"title":   func(s string) string { return title.String(strings.ToLower(s)) },
		"progress": func(fraction float64) int {
			return int(min(max(fraction, 0), 1) * 100)
		},
	}
}
