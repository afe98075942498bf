package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ErrInvalidCredentials は認証サービスが資格情報を拒否したことを表す。
var ErrInvalidCredentials = errors.New("gateway: invalid credentials")

// AuthIdentity は外部認証サービス上のアイデンティティを表す。
type AuthIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthResult は認証・登録の成功結果を表す。
type AuthResult struct {
	Identity     AuthIdentity
	AccessToken  string
	RefreshToken string
}

// tokenResponse は認証エンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         AuthIdentity `json:"user"`
}

// Authenticate はメール/パスワードで外部認証サービスにサインインする。
// 資格情報が不正な場合はErrInvalidCredentialsを返す。
func (c *Client) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	reqBody := map[string]string{
		"email":    email,
		"password": password,
	}
	return c.authRequest(ctx, "/auth/v1/token?grant_type=password", reqBody)
}

// RegisterIdentity は外部認証サービスに新しいアイデンティティを作成する。
// metadataはアイデンティティのuser_metadataとして保存される。
func (c *Client) RegisterIdentity(ctx context.Context, email, password string, metadata map[string]any) (*AuthResult, error) {
	reqBody := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		reqBody["data"] = metadata
	}
	return c.authRequest(ctx, "/auth/v1/signup", reqBody)
}

// authRequest は認証エンドポイントへのPOSTを実行する。
func (c *Client) authRequest(ctx context.Context, path string, payload any) (*AuthResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("auth request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth response: %w", err)
	}

	// 400/401/422は資格情報・入力の拒否として扱う。
	// 生のエラーメッセージはログのみに残す。
	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusUnprocessableEntity:
		c.logger.Warn("auth service rejected credentials",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Error("auth service returned error status",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(respBody), 200)}
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if token.User.ID == "" {
		return nil, fmt.Errorf("auth response missing identity")
	}

	return &AuthResult{
		Identity:     token.User,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}
