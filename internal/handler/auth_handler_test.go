package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/caretracker/internal/auth"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
)

type countingLoginObserver struct {
	successes int
	failures  int
}

func (o *countingLoginObserver) RecordLogin(success bool) {
	if success {
		o.successes++
	} else {
		o.failures++
	}
}

func newAuthHandler(t *testing.T, service AuthServiceInterface, observer LoginObserver) *AuthHandler {
	t.Helper()
	return NewAuthHandler(service, testRenderer(t), middleware.SessionConfig{MaxAge: 86400}, observer)
}

func postForm(path string, form url.Values, session *model.Session) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req.WithContext(middleware.ContextWithSession(req.Context(), session))
}

func TestLogin_Success_RedirectsHome(t *testing.T) {
	observer := &countingLoginObserver{}
	h := newAuthHandler(t, &mockAuthService{}, observer)

	req := postForm("/login", url.Values{"email": {"a@example.com"}, "password": {"secret"}}, anonymousSession())
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/" {
		t.Errorf("Location = %q", got)
	}
	if observer.successes != 1 {
		t.Errorf("successes = %d, want 1", observer.successes)
	}
}

// 認証失敗はフォームを再表示し、固定メッセージとemailの書き戻しを行う。
// パスワードは書き戻さない。
func TestLogin_Failure_RerendersWithMessage(t *testing.T) {
	service := &mockAuthService{
		loginFn: func(ctx context.Context, session *model.Session, email, password string) error {
			return model.NewAuthenticationFailedError(nil)
		},
	}
	observer := &countingLoginObserver{}
	h := newAuthHandler(t, service, observer)

	req := postForm("/login", url.Values{"email": {"a@example.com"}, "password": {"wrong"}}, anonymousSession())
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid email or password.") {
		t.Error("body must contain the fixed failure message")
	}
	if !strings.Contains(body, "a@example.com") {
		t.Error("submitted email must be preserved in the form")
	}
	if strings.Contains(body, "wrong") {
		t.Error("password must never be echoed back")
	}
	if observer.failures != 1 {
		t.Errorf("failures = %d, want 1", observer.failures)
	}
}

func TestShowLogin_Authenticated_RedirectsHome(t *testing.T) {
	h := newAuthHandler(t, &mockAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), sessionWithRole(model.RoleStudent)))
	rec := httptest.NewRecorder()

	h.ShowLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
}

func TestRegister_ValidationFailure_RerendersWithFields(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(ctx context.Context, session *model.Session, input auth.RegisterInput) error {
			return model.NewValidationFailedError([]string{"Password", "Join code"})
		},
	}
	h := newAuthHandler(t, service, nil)

	req := postForm("/register", url.Values{
		"email":     {"b@example.com"},
		"firstName": {"Yui"},
		"lastName":  {"Sato"},
	}, anonymousSession())
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Please fill out: Password, Join code.") {
		t.Errorf("body must list the missing fields:\n%s", body)
	}
	for _, preserved := range []string{"b@example.com", "Yui", "Sato"} {
		if !strings.Contains(body, preserved) {
			t.Errorf("submitted value %q must be preserved", preserved)
		}
	}
}

func TestRegister_Success_RedirectsHome(t *testing.T) {
	h := newAuthHandler(t, &mockAuthService{}, nil)

	req := postForm("/register", url.Values{
		"email":     {"b@example.com"},
		"password":  {"secret"},
		"firstName": {"Yui"},
		"lastName":  {"Sato"},
		"joinCode":  {"ABC123"},
	}, anonymousSession())
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
}

func TestLogout_ExpiresCookieAndRedirects(t *testing.T) {
	loggedOut := false
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, session *model.Session) error {
			loggedOut = true
			return nil
		},
	}
	h := newAuthHandler(t, service, nil)

	req := postForm("/logout", url.Values{}, sessionWithRole(model.RoleStudent))
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if !loggedOut {
		t.Error("service.Logout must be called")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}

	expired := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "caretracker_session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("session cookie must be expired on logout")
	}
}
