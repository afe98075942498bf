package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// MetricsCollectorインターフェースの実装チェック
var _ MetricsCollector = (*Collector)(nil)

func TestRecordGatewayCall_CountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGatewayCall("query:v_users", 10*time.Millisecond, nil)
	c.RecordGatewayCall("query:v_users", 10*time.Millisecond, nil)
	c.RecordGatewayCall("rpc:set_role_from_join_code", 5*time.Millisecond, errors.New("boom"))

	success := testutil.ToFloat64(c.gatewayCalls.WithLabelValues("query:v_users", "success"))
	if success != 2 {
		t.Errorf("success count = %v, want 2", success)
	}
	failure := testutil.ToFloat64(c.gatewayCalls.WithLabelValues("rpc:set_role_from_join_code", "failure"))
	if failure != 1 {
		t.Errorf("failure count = %v, want 1", failure)
	}
}

func TestRecordHTTPStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(403)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("403")); got != 1 {
		t.Errorf("403 count = %v, want 1", got)
	}
}

func TestRecordLogin(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(true)
	c.RecordLogin(false)
	c.RecordLogin(false)

	if got := testutil.ToFloat64(c.logins.WithLabelValues("failure")); got != 2 {
		t.Errorf("failure count = %v, want 2", got)
	}
}

func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSessionCreated()

	server := httptest.NewServer(SetupMetricsRoute(reg))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	buf := make([]byte, 64*1024)
	n, _ := resp.Body.Read(buf)
	body := string(buf[:n])
	if !strings.Contains(body, "caretracker_sessions_created_total 1") {
		t.Errorf("body does not contain session counter:\n%s", body)
	}
}
