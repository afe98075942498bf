package handler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/caretracker/internal/auth"
	"github.com/hitoshi/caretracker/internal/configcode"
	"github.com/hitoshi/caretracker/internal/middleware"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/view"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn    func(ctx context.Context, session *model.Session, email, password string) error
	registerFn func(ctx context.Context, session *model.Session, input auth.RegisterInput) error
	logoutFn   func(ctx context.Context, session *model.Session) error
}

func (m *mockAuthService) Login(ctx context.Context, session *model.Session, email, password string) error {
	if m.loginFn != nil {
		return m.loginFn(ctx, session, email, password)
	}
	return nil
}

func (m *mockAuthService) Register(ctx context.Context, session *model.Session, input auth.RegisterInput) error {
	if m.registerFn != nil {
		return m.registerFn(ctx, session, input)
	}
	return nil
}

func (m *mockAuthService) Logout(ctx context.Context, session *model.Session) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, session)
	}
	return nil
}

type mockProfileService struct {
	syncProfileFn   func(ctx context.Context, session *model.Session) (*model.UserIdentity, error)
	updateProfileFn func(ctx context.Context, session *model.Session, firstName, lastName string) (*model.UserIdentity, error)
}

func (m *mockProfileService) SyncProfile(ctx context.Context, session *model.Session) (*model.UserIdentity, error) {
	if m.syncProfileFn != nil {
		return m.syncProfileFn(ctx, session)
	}
	return session.CurrentUser(), nil
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, session *model.Session, firstName, lastName string) (*model.UserIdentity, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, session, firstName, lastName)
	}
	return session.CurrentUser(), nil
}

type mockStudentService struct {
	listFn func(ctx context.Context) ([]model.Student, error)
}

func (m *mockStudentService) List(ctx context.Context) ([]model.Student, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockReportService struct {
	domainReportFn    func(ctx context.Context, userID string) ([]model.DomainReport, error)
	progressSummaryFn func(ctx context.Context, userID string) (*model.ProgressSummary, error)
}

func (m *mockReportService) DomainReportByUserID(ctx context.Context, userID string) ([]model.DomainReport, error) {
	if m.domainReportFn != nil {
		return m.domainReportFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockReportService) ProgressSummaryByUserID(ctx context.Context, userID string) (*model.ProgressSummary, error) {
	if m.progressSummaryFn != nil {
		return m.progressSummaryFn(ctx, userID)
	}
	return nil, nil
}

type mockClassroomService struct {
	listFn     func(ctx context.Context) ([]model.Classroom, error)
	findByIDFn func(ctx context.Context, classroomID string) (*model.Classroom, error)
}

func (m *mockClassroomService) List(ctx context.Context) ([]model.Classroom, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockClassroomService) FindByID(ctx context.Context, classroomID string) (*model.Classroom, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, classroomID)
	}
	return &model.Classroom{ClassroomID: classroomID}, nil
}

type mockRosterService struct {
	listByClassroomFn func(ctx context.Context, classroomID string) ([]model.Student, error)
}

func (m *mockRosterService) ListByClassroom(ctx context.Context, classroomID string) ([]model.Student, error) {
	if m.listByClassroomFn != nil {
		return m.listByClassroomFn(ctx, classroomID)
	}
	return nil, nil
}

type mockConfigService struct {
	listFn   func(ctx context.Context) ([]model.ConfigCode, error)
	createFn func(ctx context.Context, input configcode.CreateInput) (*model.ConfigCode, error)
	deleteFn func(ctx context.Context, codeID string) error
}

func (m *mockConfigService) List(ctx context.Context) ([]model.ConfigCode, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockConfigService) Create(ctx context.Context, input configcode.CreateInput) (*model.ConfigCode, error) {
	if m.createFn != nil {
		return m.createFn(ctx, input)
	}
	return &model.ConfigCode{}, nil
}

func (m *mockConfigService) Delete(ctx context.Context, codeID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, codeID)
	}
	return nil
}

type mockExporter struct {
	exportCSVFn func(ctx context.Context) ([]byte, error)
}

func (m *mockExporter) ExportCSV(ctx context.Context) ([]byte, error) {
	if m.exportCSVFn != nil {
		return m.exportCSVFn(ctx)
	}
	return []byte("header\n"), nil
}

// --- compile-time interface checks ---
var _ AuthServiceInterface = (*mockAuthService)(nil)
var _ ProfileServiceInterface = (*mockProfileService)(nil)
var _ StudentServiceInterface = (*mockStudentService)(nil)
var _ ReportServiceInterface = (*mockReportService)(nil)
var _ ClassroomServiceInterface = (*mockClassroomService)(nil)
var _ RosterServiceInterface = (*mockRosterService)(nil)
var _ ConfigCodeServiceInterface = (*mockConfigService)(nil)
var _ ClinicalExporterInterface = (*mockExporter)(nil)

// --- テストヘルパー ---

func testRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := view.NewRenderer(logger, false)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func sessionWithRole(role model.Role) *model.Session {
	return &model.Session{
		ID: "session-1",
		User: &model.UserIdentity{
			UserID:   "u-1",
			Email:    "a@example.com",
			FullName: "Aki Tanaka",
			Role:     role,
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func anonymousSession() *model.Session {
	return &model.Session{ID: "session-1", ExpiresAt: time.Now().Add(time.Hour)}
}

// sessionStoreFor は固定セッションを返すテスト用SessionStore。
type sessionStoreFor struct {
	session *model.Session
}

func (s sessionStoreFor) FindSession(ctx context.Context, id string) (*model.Session, error) {
	return s.session, nil
}

func (s sessionStoreFor) CreateSession(ctx context.Context) (*model.Session, error) {
	return s.session, nil
}

var _ middleware.SessionStore = sessionStoreFor{}
