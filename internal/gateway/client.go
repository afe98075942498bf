// Package gateway は外部マネージドデータサービスへのクライアントを提供する。
// 行クエリ・単一行クエリ・挿入・削除・名前付きリモートプロシージャ呼び出しと、
// メール/パスワード認証のエンドポイントを薄くラップする。
// コネクション管理・リトライ・タイムアウトはhttp.Client側に委譲する。
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
	"net/url"
	"strings"
	"time"
)

// ErrNotFound はQueryOneで対象行が存在しなかったことを表す。
var ErrNotFound = errors.New("gateway: row not found")

// Filters は等値フィルタの組（カラム名 → 値）。
type Filters map[string]string

// Order はクエリ結果の並び順指定。
type Order struct {
	Column     string
	Descending bool
}

// CallRecorder はゲートウェイ呼び出しの計測インターフェース。
// metricsパッケージのCollectorが実装する。nilの場合は計測しない。
type CallRecorder interface {
	RecordGatewayCall(operation string, duration time.Duration, err error)
}

// Client は外部データサービスのRESTインターフェースのクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
	recorder   CallRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
// apiKeyはすべてのリクエストのapikey/Authorizationヘッダーに載る。
// recorderはnil可。
func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger, recorder CallRecorder) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
		recorder:   recorder,
	}
}

// Query は条件に一致する行の集合を取得し、destにデコードする。
// destには行構造体のスライスへのポインタを渡す。
func (c *Client) Query(ctx context.Context, resource string, filters Filters, ordering []Order, dest any) error {
	reqURL := c.restURL(resource, filters, ordering)
	return c.do(ctx, "query:"+resource, http.MethodGet, reqURL, nil, "", dest)
}

// QueryOne は条件に一致する単一行を取得し、destにデコードする。
// 行が存在しない場合はErrNotFoundを返す。
func (c *Client) QueryOne(ctx context.Context, resource string, filters Filters, dest any) error {
	reqURL := c.restURL(resource, filters, nil)
	err := c.do(ctx, "query_one:"+resource, http.MethodGet, reqURL, nil, "application/vnd.pgrst.object+json", dest)
	if err != nil {
		var statusErr *statusError
		if errors.As(err, &statusErr) && (statusErr.code == http.StatusNotAcceptable || statusErr.code == http.StatusNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Insert は1行を挿入し、作成された行をdestにデコードする。
// destがnilの場合は作成行を要求しない。
func (c *Client) Insert(ctx context.Context, resource string, payload any, dest any) error {
	reqURL := c.restURL(resource, nil, nil)
	accept := ""
	if dest != nil {
		accept = "application/vnd.pgrst.object+json"
	}
	return c.do(ctx, "insert:"+resource, http.MethodPost, reqURL, payload, accept, dest)
}

// Delete は条件に一致する行を削除する。
// フィルタなしの全行削除は誤操作防止のため拒否する。
func (c *Client) Delete(ctx context.Context, resource string, filters Filters) error {
	if len(filters) == 0 {
		return fmt.Errorf("gateway: delete without filters is not allowed")
	}
	reqURL := c.restURL(resource, filters, nil)
	return c.do(ctx, "delete:"+resource, http.MethodDelete, reqURL, nil, "", nil)
}

// Call は名前付きリモートプロシージャを呼び出し、結果をdestにデコードする。
// 認証・登録・プロフィールupsert・ロール割り当てに使用される。
func (c *Client) Call(ctx context.Context, procedure string, args map[string]any, dest any) error {
	reqURL := c.baseURL + "/rest/v1/rpc/" + url.PathEscape(procedure)
	if args == nil {
		args = map[string]any{}
	}
	return c.do(ctx, "call:"+procedure, http.MethodPost, reqURL, args, "", dest)
}

// restURL はRESTエンドポイントのURLを構築する。
func (c *Client) restURL(resource string, filters Filters, ordering []Order) string {
	q := url.Values{}
	for column, value := range filters {
		q.Set(column, "eq."+value)
	}
	if len(ordering) > 0 {
		parts := make([]string, len(ordering))
		for i, o := range ordering {
			direction := "asc"
			if o.Descending {
				direction = "desc"
			}
			parts[i] = o.Column + "." + direction
		}
		q.Set("order", strings.Join(parts, ","))
	}

	u := c.baseURL + "/rest/v1/" + url.PathEscape(resource)
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

// statusError は非2xxレスポンスを表す内部エラー。
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.code, e.body)
}

// do はHTTPリクエストを実行し、2xxレスポンスのボディをdestにデコードする。
// 失敗の詳細はサーバーサイドログにのみ残し、呼び出し側には不透明なエラーを返す。
func (c *Client) do(ctx context.Context, operation, method, reqURL string, payload any, accept string, dest any) (err error) {
	start := time.Now()
	defer func() {
		if c.recorder != nil {
			c.recorder.RecordGatewayCall(operation, time.Since(start), err)
		}
	}()

	var body io.Reader
	if payload != nil {
		data, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return fmt.Errorf("failed to encode request payload: %w", marshalErr)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("gateway returned error status",
			slog.String("operation", operation),
			slog.Int("status", resp.StatusCode),
		)
		return &statusError{code: resp.StatusCode, body: truncate(string(respBody), 200)}
	}

	if dest == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// truncate はログ・エラー用に文字列を最大n文字に切り詰める。
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
