package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hitoshi/caretracker/internal/configcode"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
)

func TestConfigShow_ManagerSeesDeleteButtons(t *testing.T) {
	config := &mockConfigService{
		listFn: func(ctx context.Context) ([]model.ConfigCode, error) {
			return []model.ConfigCode{
				{CodeID: "c-1", CodeType: "site", CodeText: "HOSP", CodeMeaning: "Hospital"},
			}, nil
		},
	}
	h := NewConfigCodeHandler(config, testRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/caretrackerconfig", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), sessionWithRole(model.RoleManager)))
	rec := httptest.NewRecorder()

	h.Show(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "HOSP") {
		t.Error("code row missing")
	}
	if !strings.Contains(body, "/caretrackerconfig/delete") {
		t.Error("manager must see delete forms")
	}
}

func TestConfigShow_TeacherSeesNoDeleteButtons(t *testing.T) {
	config := &mockConfigService{
		listFn: func(ctx context.Context) ([]model.ConfigCode, error) {
			return []model.ConfigCode{
				{CodeID: "c-1", CodeType: "site", CodeText: "HOSP"},
			}, nil
		},
	}
	h := NewConfigCodeHandler(config, testRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/caretrackerconfig", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), sessionWithRole(model.RoleTeacher)))
	rec := httptest.NewRecorder()

	h.Show(rec, req)

	if strings.Contains(rec.Body.String(), "/caretrackerconfig/delete") {
		t.Error("non-manager must not see delete forms")
	}
}

func TestConfigAdd_Success_Redirects(t *testing.T) {
	var created configcode.CreateInput
	config := &mockConfigService{
		createFn: func(ctx context.Context, input configcode.CreateInput) (*model.ConfigCode, error) {
			created = input
			return &model.ConfigCode{CodeID: "c-new"}, nil
		},
	}
	h := NewConfigCodeHandler(config, testRenderer(t))

	req := postForm("/add_config", url.Values{
		"codeType":    {"domain"},
		"codeGroup":   {"Domain 1"},
		"code":        {"D1-01"},
		"codeMeaning": {"Patient care basics"},
	}, sessionWithRole(model.RoleManager))
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if created.CodeText != "D1-01" || created.CodeGroup != "Domain 1" {
		t.Errorf("created = %+v", created)
	}
}

func TestConfigAdd_ValidationFailure_RerendersWithForm(t *testing.T) {
	config := &mockConfigService{
		createFn: func(ctx context.Context, input configcode.CreateInput) (*model.ConfigCode, error) {
			return nil, model.NewValidationFailedError([]string{"Code group"})
		},
	}
	h := NewConfigCodeHandler(config, testRenderer(t))

	req := postForm("/add_config", url.Values{
		"codeType": {"domain"},
		"code":     {"D1-01"},
	}, sessionWithRole(model.RoleManager))
	rec := httptest.NewRecorder()

	h.Add(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Please fill out: Code group.") {
		t.Error("validation message missing")
	}
	if !strings.Contains(body, "D1-01") {
		t.Error("submitted code must be preserved in the form")
	}
}

func TestProfileUpdate_Success_ShowsMessageAndFreshIdentity(t *testing.T) {
	profile := &mockProfileService{
		updateProfileFn: func(ctx context.Context, session *model.Session, firstName, lastName string) (*model.UserIdentity, error) {
			return &model.UserIdentity{
				UserID: "u-1", Email: "a@example.com",
				FirstName: firstName, LastName: lastName,
				FullName: firstName + " " + lastName,
				Role:     model.RoleTeacher,
			}, nil
		},
	}
	h := NewProfileHandler(profile, testRenderer(t))

	req := postForm("/profile", url.Values{
		"firstName": {"Akiko"},
		"lastName":  {"Tanaka"},
	}, sessionWithRole(model.RoleTeacher))
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "Profile updated.") {
		t.Error("success message missing")
	}
	if !strings.Contains(body, "Akiko") {
		t.Error("updated name must be rendered")
	}
}

func TestProfileShow_ResyncsBeforeRender(t *testing.T) {
	synced := false
	profile := &mockProfileService{
		syncProfileFn: func(ctx context.Context, session *model.Session) (*model.UserIdentity, error) {
			synced = true
			return session.CurrentUser(), nil
		},
	}
	h := NewProfileHandler(profile, testRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(middleware.ContextWithSession(req.Context(), sessionWithRole(model.RoleTeacher)))
	rec := httptest.NewRecorder()

	h.Show(rec, req)

	if !synced {
		t.Error("profile view must resync the session identity")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
