package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/caretracker/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
// セッションペイロード（ユーザー・トークン）はJSONBカラムに格納する。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// sessionPayload はsessions.payloadカラムのJSON表現。
type sessionPayload struct {
	User   *userPayload   `json:"user,omitempty"`
	Tokens *tokensPayload `json:"tokens,omitempty"`
}

type userPayload struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	FullName  string     `json:"full_name"`
	Role      model.Role `json:"role_level"`
}

type tokensPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// encodePayload はセッションのペイロードをJSONにシリアライズする。
func encodePayload(session *model.Session) ([]byte, error) {
	p := sessionPayload{}
	if session.User != nil {
		p.User = &userPayload{
			UserID:    session.User.UserID,
			Email:     session.User.Email,
			FirstName: session.User.FirstName,
			LastName:  session.User.LastName,
			FullName:  session.User.FullName,
			Role:      session.User.Role,
		}
	}
	if session.Tokens != nil {
		p.Tokens = &tokensPayload{
			AccessToken:  session.Tokens.AccessToken,
			RefreshToken: session.Tokens.RefreshToken,
		}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session payload: %w", err)
	}
	return data, nil
}

// decodePayload はJSONペイロードをセッションに復元する。
func decodePayload(data []byte, session *model.Session) error {
	var p sessionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to decode session payload: %w", err)
	}
	if p.User != nil {
		session.User = &model.UserIdentity{
			UserID:    p.User.UserID,
			Email:     p.User.Email,
			FirstName: p.User.FirstName,
			LastName:  p.User.LastName,
			FullName:  p.User.FullName,
			Role:      p.User.Role,
		}
	}
	if p.Tokens != nil {
		session.Tokens = &model.RemoteTokens{
			AccessToken:  p.Tokens.AccessToken,
			RefreshToken: p.Tokens.RefreshToken,
		}
	}
	return nil
}

// userIDOf はuser_idカラム用の値を返す。未認証セッションはNULL。
func userIDOf(session *model.Session) sql.NullString {
	if session.User == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: session.User.UserID, Valid: true}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	payload, err := encodePayload(session)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, payload, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, userIDOf(session), payload, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var payload []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT id, payload, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &payload, &session.ExpiresAt, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if err := decodePayload(payload, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Save はセッションのペイロードとuser_idを更新する。
func (r *PostgresSessionRepo) Save(ctx context.Context, session *model.Session) error {
	payload, err := encodePayload(session)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = $2, payload = $3 WHERE id = $1`,
		session.ID, userIDOf(session), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
