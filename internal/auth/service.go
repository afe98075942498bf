// Package auth はメール/パスワード認証、セッション管理、プロフィール同期を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/caretracker/internal/gateway"
	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/repository"
)

// Gateway は認証サービスが必要とする外部データサービスのインターフェース。
// gateway.Clientの部分集合として定義する。
type Gateway interface {
	Authenticate(ctx context.Context, email, password string) (*gateway.AuthResult, error)
	RegisterIdentity(ctx context.Context, email, password string, metadata map[string]any) (*gateway.AuthResult, error)
	QueryOne(ctx context.Context, resource string, filters gateway.Filters, dest any) error
	Call(ctx context.Context, procedure string, args map[string]any, dest any) error
}

// TextSanitizer はフォーム入力の正規化インターフェース。
type TextSanitizer interface {
	Sanitize(input string) string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証・プロフィールに関するビジネスロジックを提供する。
type Service struct {
	gw          Gateway
	sessionRepo repository.SessionRepository
	sanitizer   TextSanitizer
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(gw Gateway, sessionRepo repository.SessionRepository, sanitizer TextSanitizer, config ServiceConfig) *Service {
	return &Service{
		gw:          gw,
		sessionRepo: sessionRepo,
		sanitizer:   sanitizer,
		config:      config,
	}
}

// profileRow は外部データサービスのv_usersビューの行。
// role_levelはjoin code未割り当てのユーザーでNULLになりうる。
type profileRow struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	RoleLevel *int   `json:"role_level"`
}

// toIdentity はプロフィール行をUserIdentityへ写像する。
// emailは認証サービス側が所有するためここでは設定しない。
func (r *profileRow) toIdentity() model.UserIdentity {
	role := model.RoleNone
	if r.RoleLevel != nil {
		role = model.Role(*r.RoleLevel)
	}
	return model.UserIdentity{
		UserID:    r.UserID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		FullName:  r.FullName,
		Role:      role,
	}
}

// ResolveProfile は外部認証IDからアプリケーションプロフィールを解決する。
// 認証レコードはあるがプロフィール行が無い場合（プロビジョニング未完）は
// KindNotFoundのAppErrorを返す。呼び出し側は資格情報不正と同一に扱うこと。
func (s *Service) ResolveProfile(ctx context.Context, externalAuthID string) (*model.UserIdentity, error) {
	var row profileRow
	err := s.gw.QueryOne(ctx, "v_users", gateway.Filters{"user_id": externalAuthID}, &row)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, model.NewNotFoundError("Profile")
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to resolve profile: %w", err))
	}

	identity := row.toIdentity()
	return &identity, nil
}

// CreateOrUpdateProfile はプロフィール行を冪等にupsertする。
// 登録時とプロフィール編集時の両方で使用される。role_levelは
// この経路では設定できず、リモート側の正準値が返る。
func (s *Service) CreateOrUpdateProfile(ctx context.Context, firstName, lastName, externalAuthID string) (*model.UserIdentity, error) {
	var row profileRow
	err := s.gw.Call(ctx, "create_update_care_user", map[string]any{
		"p_first_name": firstName,
		"p_last_name":  lastName,
		"p_user_id":    externalAuthID,
	}, &row)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to upsert profile: %w", err))
	}

	identity := row.toIdentity()
	return &identity, nil
}

// AssignRoleByJoinCode はjoin codeによるロール割り当てを1回だけ実行する。
// リモート側が拒否した場合はnilロールを返す。登録時のみ呼び出される。
func (s *Service) AssignRoleByJoinCode(ctx context.Context, code string) (*model.Role, error) {
	var result *int
	err := s.gw.Call(ctx, "set_role_from_join_code", map[string]any{
		"joincode": strings.TrimSpace(code),
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to assign role from join code: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	role := model.Role(*result)
	return &role, nil
}

// Login はメール/パスワードで認証し、セッションにユーザーとトークンを紐付ける。
// 資格情報不正とプロフィール未作成はどちらもKindAuthenticationFailedとして
// 同一メッセージで返る（アカウント列挙対策）。
// 成功時はセッションの変更を永続化してから返る。
func (s *Service) Login(ctx context.Context, session *model.Session, email, password string) error {
	result, err := s.gw.Authenticate(ctx, email, password)
	if errors.Is(err, gateway.ErrInvalidCredentials) {
		return model.NewAuthenticationFailedError(err)
	}
	if err != nil {
		return model.NewRemoteFailureError(fmt.Errorf("authentication request failed: %w", err))
	}

	identity, err := s.ResolveProfile(ctx, result.Identity.ID)
	if model.IsKind(err, model.KindNotFound) {
		// 認証アカウントはあるがプロフィール行が無い。
		// ユーザーへは資格情報不正と区別できない形で返す。
		slog.Warn("authenticated identity has no application profile",
			slog.String("auth_id", result.Identity.ID),
		)
		return model.NewAuthenticationFailedError(err)
	}
	if err != nil {
		return err
	}

	identity.Email = result.Identity.Email
	session.AttachUser(*identity, model.RemoteTokens{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return model.NewRemoteFailureError(fmt.Errorf("failed to persist session: %w", err))
	}

	slog.Info("user logged in",
		slog.String("user_id", identity.UserID),
		slog.Int("role_level", int(identity.Role)),
	)
	return nil
}

// RegisterInput は登録フォームの入力。
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	JoinCode  string
}

// Validate は必須フィールドの欠落を表示名付きで列挙する。
func (in RegisterInput) Validate() *model.AppError {
	var missing []string
	if in.Email == "" {
		missing = append(missing, "Email")
	}
	if in.Password == "" {
		missing = append(missing, "Password")
	}
	if strings.TrimSpace(in.FirstName) == "" {
		missing = append(missing, "First name")
	}
	if strings.TrimSpace(in.LastName) == "" {
		missing = append(missing, "Last name")
	}
	if strings.TrimSpace(in.JoinCode) == "" {
		missing = append(missing, "Join code")
	}
	if len(missing) > 0 {
		return model.NewValidationFailedError(missing)
	}
	return nil
}

// Register は認証アイデンティティとプロフィールを作成し、セッションに紐付ける。
//
// join codeによるロール割り当ては副次ステップであり、その失敗は登録を
// 中断しない。アカウントは結果のロール状態（未割り当て含む）のまま作成され、
// 失敗はログにのみ記録される。
func (s *Service) Register(ctx context.Context, session *model.Session, input RegisterInput) error {
	if appErr := input.Validate(); appErr != nil {
		return appErr
	}

	firstName := s.sanitizer.Sanitize(input.FirstName)
	lastName := s.sanitizer.Sanitize(input.LastName)

	result, err := s.gw.RegisterIdentity(ctx, input.Email, input.Password, map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
	})
	if errors.Is(err, gateway.ErrInvalidCredentials) {
		return &model.AppError{
			Kind:    model.KindValidationFailed,
			Message: "Unable to register. Please try again.",
		}
	}
	if err != nil {
		return model.NewRemoteFailureError(fmt.Errorf("registration request failed: %w", err))
	}

	identity, err := s.CreateOrUpdateProfile(ctx, firstName, lastName, result.Identity.ID)
	if err != nil {
		return err
	}

	if code := strings.TrimSpace(input.JoinCode); code != "" {
		role, assignErr := s.AssignRoleByJoinCode(ctx, code)
		if assignErr != nil {
			// 主処理（アカウント作成）は確定済み。ここでは巻き戻さない。
			slog.Error("join code role assignment failed",
				slog.String("user_id", identity.UserID),
				slog.String("error", model.NewPartialSuccessError("assign_role_by_join_code", assignErr).Error()),
			)
		} else if role != nil {
			identity.Role = *role
		}
	}

	identity.Email = result.Identity.Email
	session.AttachUser(*identity, model.RemoteTokens{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return model.NewRemoteFailureError(fmt.Errorf("failed to persist session: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", identity.UserID),
		slog.Int("role_level", int(identity.Role)),
	)
	return nil
}

// Logout はセッションを破棄する。
// ストアからの削除とメモリ上のクリアを両方行う。
func (s *Service) Logout(ctx context.Context, session *model.Session) error {
	if session == nil || session.ID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	session.Clear()

	slog.Info("user logged out", slog.String("session_id", session.ID))
	return nil
}

// SyncProfile はリモートの最新プロフィールでセッション内のユーザーを更新する。
// プロフィール閲覧・更新後に呼び出し、キャッシュ済みロールの陳腐化を防ぐ。
// 更新後のセッションは永続化されてから返る。
func (s *Service) SyncProfile(ctx context.Context, session *model.Session) (*model.UserIdentity, error) {
	current := session.CurrentUser()
	if current == nil {
		return nil, model.NewAuthorizationDeniedError("authentication required")
	}

	identity, err := s.ResolveProfile(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	// emailは認証サービス側が所有するためセッションの値を保持する
	identity.Email = current.Email
	session.User = identity

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to persist session: %w", err))
	}
	return identity, nil
}

// UpdateProfile は氏名を更新し、セッションを再同期する。
func (s *Service) UpdateProfile(ctx context.Context, session *model.Session, firstName, lastName string) (*model.UserIdentity, error) {
	current := session.CurrentUser()
	if current == nil {
		return nil, model.NewAuthorizationDeniedError("authentication required")
	}

	var missing []string
	if strings.TrimSpace(firstName) == "" {
		missing = append(missing, "First name")
	}
	if strings.TrimSpace(lastName) == "" {
		missing = append(missing, "Last name")
	}
	if len(missing) > 0 {
		return nil, model.NewValidationFailedError(missing)
	}

	identity, err := s.CreateOrUpdateProfile(ctx,
		s.sanitizer.Sanitize(firstName),
		s.sanitizer.Sanitize(lastName),
		current.UserID,
	)
	if err != nil {
		return nil, err
	}

	identity.Email = current.Email
	session.User = identity

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to persist session: %w", err))
	}
	return identity, nil
}

// CreateSession は匿名セッションを作成し永続化する。
// セッションミドルウェアがCookie未保持のリクエストに対して呼び出す。
func (s *Service) CreateSession(ctx context.Context) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// FindSession は指定IDの有効なセッションを返す。期限切れ・不存在はnil。
func (s *Service) FindSession(ctx context.Context, id string) (*model.Session, error) {
	return s.sessionRepo.FindByID(ctx, id)
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
