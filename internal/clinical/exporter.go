// Package clinical はクリニカルアワーのCSVエクスポートを提供する。
package clinical

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/caretracker/internal/model"
	"github.com/hitoshi/caretracker/internal/security"
)

// maxExportSize はエクスポートCSVの最大サイズ (32MB)。
const maxExportSize = 32 * 1024 * 1024

// Exporter は外部のエクスポート関数を呼び出してCSVを取得する。
// 呼び出し側で管理者限定の認可検査を済ませていること。
type Exporter struct {
	client     *http.Client
	exportURL  string
	serviceKey string
	logger     *slog.Logger
}

// NewExporter はExporterを生成する。exportURLは起動時に検証し、
// 危険な宛先（内部ネットワーク等）の場合はエラーを返す。
func NewExporter(guard security.EgressGuardService, exportURL, serviceKey string, timeout time.Duration, logger *slog.Logger) (*Exporter, error) {
	if err := guard.ValidateURL(exportURL); err != nil {
		return nil, fmt.Errorf("unsafe export URL: %w", err)
	}
	return &Exporter{
		client:     guard.NewSafeClient(timeout),
		exportURL:  exportURL,
		serviceKey: serviceKey,
		logger:     logger,
	}, nil
}

// ExportCSV はエクスポート関数を呼び出し、CSVデータを返す。
func (e *Exporter) ExportCSV(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.exportURL, nil)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to build export request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+e.serviceKey)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("export request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e.logger.Error("clinical export returned non-200",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, model.NewRemoteFailureError(fmt.Errorf("export function returned status %d", resp.StatusCode))
	}

	csv, err := io.ReadAll(io.LimitReader(resp.Body, maxExportSize))
	if err != nil {
		return nil, model.NewRemoteFailureError(fmt.Errorf("failed to read export response: %w", err))
	}

	e.logger.Info("clinical hours exported",
		slog.Int("bytes", len(csv)),
		slog.Duration("duration", time.Since(start)),
	)
	return csv, nil
}
