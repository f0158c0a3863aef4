package app

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/agropulse/internal/auth"
)

const (
	modeSignIn = "signin"
	modeSignUp = "signup"

	verificationSent = "Check your email for the verification link!"
)

type loginPage struct {
	Path     string
	Mode     string
	Email    string
	Redirect string
	Error    string
	Message  string
}

// SignUp reports whether the page is in account creation mode.
func (p loginPage) SignUp() bool {
	return p.Mode == modeSignUp
}

// Action is the form target, carrying the redirect parameter through.
func (p loginPage) Action() string {
	return p.url("")
}

// Toggle links to the other mode.
func (p loginPage) Toggle() string {
	if p.SignUp() {
		return p.url("")
	}
	return p.url(modeSignUp)
}

func (p loginPage) url(mode string) string {
	q := url.Values{}
	if mode != "" {
		q.Set("mode", mode)
	}
	if p.Redirect != "" {
		q.Set("redirect", p.Redirect)
	}
	if len(q) == 0 {
		return p.Path
	}
	return p.Path + "?" + q.Encode()
}

func loginMode(v string) string {
	if v == modeSignUp {
		return modeSignUp
	}
	return modeSignIn
}

func (a *App) loginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a.render(w, r, http.StatusOK, loginView, loginPage{
		Path:     a.paths.Login,
		Mode:     loginMode(q.Get("mode")),
		Redirect: q.Get("redirect"),
	})
}

// login signs in or signs up with the submitted credentials. Provider errors
// are shown on the form verbatim.
func (a *App) login(w http.ResponseWriter, r *http.Request) {
	g, ok := a.gate(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		a.render(w, r, http.StatusBadRequest, loginView, loginPage{Path: a.paths.Login, Mode: modeSignIn, Error: unreadableForm})
		return
	}

	page := loginPage{
		Path:     a.paths.Login,
		Mode:     loginMode(r.PostForm.Get("mode")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Redirect: r.URL.Query().Get("redirect"),
	}
	password := r.PostForm.Get("password")

	var (
		s   *auth.Session
		err error
	)
	if page.SignUp() {
		s, err = g.Client().SignUp(r.Context(), page.Email, password)
	} else {
		s, err = g.Client().SignIn(r.Context(), page.Email, password)
	}

	if err != nil {
		a.logger.Info("authentication failed", "mode", page.Mode, "error", err)
		page.Error = auth.Message(err)
		a.render(w, r, auth.MapHTTPStatus(err), loginView, page)
		return
	}

	if s == nil {
		page.Message = verificationSent
		page.Mode = modeSignIn
		a.render(w, r, http.StatusOK, loginView, page)
		return
	}

	http.Redirect(w, r, g.RedirectTarget(page.Redirect), http.StatusSeeOther)
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	g, ok := a.gate(w, r)
	if !ok {
		return
	}
	if err := g.Client().SignOut(r.Context()); err != nil {
		a.logger.Warn("provider sign out failed", "error", err)
	}
	http.Redirect(w, r, a.paths.Login, http.StatusSeeOther)
}
