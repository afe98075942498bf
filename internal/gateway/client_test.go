package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// testLogger はテスト用のロガーを返す。出力は破棄する。
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.Client(), server.URL, "test-api-key", testLogger(), nil)
	return client, server
}

// Queryがフィルタ・並び順をPostgRESTクエリとして構築しスライスにデコードすることを検証
func TestClient_Query_BuildsFiltersAndOrdering(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"user_id":"u-1","full_name":"Aki Tanaka"}]`)
	})

	type row struct {
		UserID   string `json:"user_id"`
		FullName string `json:"full_name"`
	}
	var rows []row
	err := client.Query(context.Background(), "v_students",
		Filters{"classroom_id": "c-9"},
		[]Order{{Column: "full_name"}},
		&rows,
	)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if gotPath != "/rest/v1/v_students" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "classroom_id=eq.c-9&order=full_name.asc" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAPIKey != "test-api-key" {
		t.Errorf("apikey header = %q", gotAPIKey)
	}
	if len(rows) != 1 || rows[0].UserID != "u-1" {
		t.Errorf("rows = %+v", rows)
	}
}

// QueryOneが単一オブジェクトAcceptヘッダーを送ることを検証
func TestClient_QueryOne_SendsObjectAccept(t *testing.T) {
	var gotAccept string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		io.WriteString(w, `{"user_id":"u-1"}`)
	})

	var row struct {
		UserID string `json:"user_id"`
	}
	if err := client.QueryOne(context.Background(), "v_users", Filters{"user_id": "u-1"}, &row); err != nil {
		t.Fatalf("QueryOne() error = %v", err)
	}
	if gotAccept != "application/vnd.pgrst.object+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if row.UserID != "u-1" {
		t.Errorf("row = %+v", row)
	}
}

// QueryOneが406/404をErrNotFoundに写像することを検証
func TestClient_QueryOne_NoRow_ReturnsErrNotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotAcceptable, http.StatusNotFound} {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		var row struct{}
		err := client.QueryOne(context.Background(), "v_users", Filters{"user_id": "missing"}, &row)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("status %d: err = %v, want ErrNotFound", status, err)
		}
	}
}

// Insertが作成行の返却を要求することを検証
func TestClient_Insert_RequestsRepresentation(t *testing.T) {
	var gotPrefer, gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"code_id":"code-1","code_text":"D01"}`)
	})

	payload := map[string]string{"code_text": "D01"}
	var created struct {
		CodeID string `json:"code_id"`
	}
	if err := client.Insert(context.Background(), "dropdown_codes", payload, &created); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if gotPrefer != "return=representation" {
		t.Errorf("Prefer = %q", gotPrefer)
	}
	if gotBody != `{"code_text":"D01"}` {
		t.Errorf("body = %q", gotBody)
	}
	if created.CodeID != "code-1" {
		t.Errorf("created = %+v", created)
	}
}

// フィルタなしのDeleteが拒否されることを検証
func TestClient_Delete_WithoutFilters_Rejected(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	err := client.Delete(context.Background(), "dropdown_codes", nil)
	if err == nil {
		t.Fatal("expected error for unfiltered delete")
	}
	if called {
		t.Error("no HTTP request should be issued for unfiltered delete")
	}
}

// CallがRPCエンドポイントにPOSTすることを検証
func TestClient_Call_PostsToRPCEndpoint(t *testing.T) {
	var gotPath, gotMethod, gotBody string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		io.WriteString(w, `1`)
	})

	var result *int
	err := client.Call(context.Background(), "set_role_from_join_code",
		map[string]any{"joincode": "ABC123"}, &result)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if gotPath != "/rest/v1/rpc/set_role_from_join_code" {
		t.Errorf("path = %q", gotPath)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q", gotMethod)
	}
	if gotBody != `{"joincode":"ABC123"}` {
		t.Errorf("body = %q", gotBody)
	}
	if result == nil || *result != 1 {
		t.Errorf("result = %v, want 1", result)
	}
}

// 5xxレスポンスがエラーとして返ることを検証
func TestClient_Query_ServerError_ReturnsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"message":"boom"}`)
	})

	var rows []struct{}
	err := client.Query(context.Background(), "v_students", nil, nil, &rows)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
