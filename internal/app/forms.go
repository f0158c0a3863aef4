package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/JaimeStill/agropulse/internal/prediction"
	"github.com/JaimeStill/agropulse/internal/views"
)

const (
	cropFailure     = "Failed to get crop recommendation. Please check that the backend server is running."
	advisoryFailure = "Failed to get advisory data. Please check that the backend server is running."
	unreadableForm  = "Could not read the form."
)

type (
	cropKey     struct{}
	advisoryKey struct{}
)

// formView is one browser's state for a form page: the request lifecycle and
// the last values entered.
type formView[In, Out any] struct {
	views.Lifecycle[Out]

	mu      sync.Mutex
	form    In
	invalid string
}

func (v *formView[In, Out]) values() (In, string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form, v.invalid
}

func (v *formView[In, Out]) setValues(form In, invalid string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form = form
	v.invalid = invalid
}

type formPage[In, Out any] struct {
	Form    In
	Status  string
	Result  Out
	Alert   string
	Invalid string
}

func newFormPage[In, Out any](v *formView[In, Out], failure string) formPage[In, Out] {
	snap := v.Snapshot()
	form, invalid := v.values()

	page := formPage[In, Out]{
		Form:    form,
		Status:  snap.Status.String(),
		Result:  snap.Result,
		Invalid: invalid,
	}
	if snap.Status == views.Failed {
		page.Alert = failureMessage(snap.Err, failure)
	}
	return page
}

func (a *App) cropState(w http.ResponseWriter, r *http.Request) (*formView[prediction.CropQuery, *prediction.CropRecommendation], bool) {
	g, ok := a.gate(w, r)
	if !ok {
		return nil, false
	}
	v := g.Attach(cropKey{}, func() any {
		return &formView[prediction.CropQuery, *prediction.CropRecommendation]{form: prediction.DefaultCropQuery()}
	})
	return v.(*formView[prediction.CropQuery, *prediction.CropRecommendation]), true
}

func (a *App) advisoryState(w http.ResponseWriter, r *http.Request) (*formView[prediction.AdvisoryInput, *prediction.AdvisoryResult], bool) {
	g, ok := a.gate(w, r)
	if !ok {
		return nil, false
	}
	v := g.Attach(advisoryKey{}, func() any {
		return &formView[prediction.AdvisoryInput, *prediction.AdvisoryResult]{form: prediction.DefaultAdvisoryInput()}
	})
	return v.(*formView[prediction.AdvisoryInput, *prediction.AdvisoryResult]), true
}

func (a *App) cropFinder(w http.ResponseWriter, r *http.Request) {
	v, ok := a.cropState(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, cropFinderView, newFormPage(v, cropFailure))
}

// submitCrop runs the recommendation and redirects back to the page, which
// renders whatever the lifecycle holds.
func (a *App) submitCrop(w http.ResponseWriter, r *http.Request) {
	v, ok := a.cropState(w, r)
	if !ok {
		return
	}

	q, invalid := parseCropQuery(r)
	if invalid != "" {
		v.setValues(q, invalid)
		a.render(w, r, http.StatusBadRequest, cropFinderView, newFormPage(v, cropFailure))
		return
	}
	v.setValues(q, "")

	_, err := v.Submit(r.Context(), func(ctx context.Context) (*prediction.CropRecommendation, error) {
		return a.api.RecommendCrop(ctx, q)
	})
	a.logSubmit("crop", err)

	http.Redirect(w, r, cropFinderView.Route, http.StatusSeeOther)
}

func (a *App) resetCrop(w http.ResponseWriter, r *http.Request) {
	v, ok := a.cropState(w, r)
	if !ok {
		return
	}
	v.Reset()
	http.Redirect(w, r, cropFinderView.Route, http.StatusSeeOther)
}

func (a *App) advisory(w http.ResponseWriter, r *http.Request) {
	v, ok := a.advisoryState(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, advisoryView, newFormPage(v, advisoryFailure))
}

func (a *App) submitAdvisory(w http.ResponseWriter, r *http.Request) {
	v, ok := a.advisoryState(w, r)
	if !ok {
		return
	}

	in, invalid := parseAdvisoryInput(r)
	if invalid != "" {
		v.setValues(in, invalid)
		a.render(w, r, http.StatusBadRequest, advisoryView, newFormPage(v, advisoryFailure))
		return
	}
	v.setValues(in, "")

	_, err := v.Submit(r.Context(), func(ctx context.Context) (*prediction.AdvisoryResult, error) {
		return a.api.Advise(ctx, in)
	})
	a.logSubmit("advisory", err)

	http.Redirect(w, r, advisoryView.Route, http.StatusSeeOther)
}

func (a *App) resetAdvisory(w http.ResponseWriter, r *http.Request) {
	v, ok := a.advisoryState(w, r)
	if !ok {
		return
	}
	v.Reset()
	http.Redirect(w, r, advisoryView.Route, http.StatusSeeOther)
}

func (a *App) logSubmit(form string, err error) {
	if errors.Is(err, views.ErrSuperseded) {
		a.logger.Debug("submission superseded", "form", form)
	}
}

// parseCropQuery returns the submitted query and a user-facing message naming
// any fields that did not parse.
func parseCropQuery(r *http.Request) (prediction.CropQuery, string) {
	q := prediction.DefaultCropQuery()
	if err := r.ParseForm(); err != nil {
		return q, unreadableForm
	}

	p := numberParser{form: r.PostForm}
	q.N = p.float("N", q.N)
	q.P = p.float("P", q.P)
	q.K = p.float("K", q.K)
	q.Temperature = p.float("temperature", q.Temperature)
	q.Humidity = p.float("humidity", q.Humidity)
	q.PH = p.float("ph", q.PH)
	q.Rainfall = p.float("rainfall", q.Rainfall)
	return q, p.problem()
}

func parseAdvisoryInput(r *http.Request) (prediction.AdvisoryInput, string) {
	in := prediction.DefaultAdvisoryInput()
	if err := r.ParseForm(); err != nil {
		return in, unreadableForm
	}

	p := numberParser{form: r.PostForm}
	in.Crop = p.text("crop", in.Crop)
	in.GrowthStage = p.text("growth_stage", in.GrowthStage)
	in.SoilPH = p.float("soil_ph", in.SoilPH)
	in.SoilN = p.float("soil_n", in.SoilN)
	in.SoilP = p.float("soil_p", in.SoilP)
	in.SoilK = p.float("soil_k", in.SoilK)
	in.SoilMoisture = p.float("soil_moisture", in.SoilMoisture)
	in.Temperature = p.float("temperature", in.Temperature)
	in.Rainfall = p.float("rainfall", in.Rainfall)
	in.Humidity = p.float("humidity", in.Humidity)
	in.State = p.text("state", in.State)
	in.Month = p.integer("month", in.Month)
	in.SoilType = p.text("soil_type", in.SoilType)
	in.Variety = p.text("variety", in.Variety)
	in.FarmerType = p.text("farmer_type", in.FarmerType)
	in.IrrigationSystem = p.text("irrigation_system", in.IrrigationSystem)
	return in, p.problem()
}

// numberParser reads form fields, keeping the previous value for fields that
// are missing and collecting the names of fields that do not parse.
type numberParser struct {
	form url.Values
	bad  []string
}

func (p *numberParser) text(name, current string) string {
	if !p.form.Has(name) {
		return current
	}
	v := strings.TrimSpace(p.form.Get(name))
	if v == "" {
		p.bad = append(p.bad, name)
		return current
	}
	return v
}

func (p *numberParser) float(name string, current float64) float64 {
	if !p.form.Has(name) {
		return current
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(p.form.Get(name)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.bad = append(p.bad, name)
		return current
	}
	return f
}

func (p *numberParser) integer(name string, current int) int {
	if !p.form.Has(name) {
		return current
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.form.Get(name)))
	if err != nil {
		p.bad = append(p.bad, name)
		return current
	}
	return n
}

func (p *numberParser) problem() string {
	if len(p.bad) == 0 {
		return ""
	}
	return fmt.Sprintf("Please enter valid values for: %s.", strings.Join(p.bad, ", "))
}
