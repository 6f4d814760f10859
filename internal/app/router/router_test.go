package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_repository/internal/app/di"
	"stock_repository/internal/feature/stocks/domain/entity"
	jwtmw "stock_repository/internal/platform/jwt"
	"stock_repository/internal/platform/metrics"
	"stock_repository/internal/platform/storage/instrumented"
	"stock_repository/internal/platform/storage/memory"
)

const testSecret = "router-test-secret"

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupRouter はインメモリストレージで全ルートを構築します。
func setupRouter(t *testing.T, ready func(ctx context.Context) error) (*gin.Engine, *metrics.Manager) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	m := metrics.NewManager(metrics.WithRegistry(prometheus.NewRegistry()))
	client := instrumented.New[entity.Stock](memory.New[entity.Stock](), m, logger)

	r := NewRouter(Deps{
		Logger:    logger,
		Metrics:   m,
		Stocks:    di.NewStockHandler(client),
		JWTSecret: testSecret,
		Ready:     ready,
	})
	return r, m
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := jwtmw.NewGenerator(testSecret, time.Hour).GenerateToken("router-test")
	require.NoError(t, err)
	return "Bearer " + token
}

func do(r *gin.Engine, method, path, body, auth string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestRouter_StockLifecycle は登録から削除までの一連の操作を検証します。
func TestRouter_StockLifecycle(t *testing.T) {
	t.Parallel()

	r, _ := setupRouter(t, nil)
	auth := bearer(t)

	w := do(r, http.MethodPost, "/stocks", `{"name":"stock-1","price":100,"popularity":5}`, auth)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/stocks", `{"name":"stock-2","price":200,"popularity":10}`, auth)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPost, "/stocks", `{"name":"stock-1","price":300}`, auth)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodGet, "/stocks/stock-1", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"stock-1","price":100,"popularity":5}`, w.Body.String())

	w = do(r, http.MethodGet, "/stocks/popular?limit=1", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"stock-2","price":200,"popularity":10}]`, w.Body.String())

	w = do(r, http.MethodPatch, "/stocks/stock-1/popularity", `{"popularity":50}`, auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/stocks/popular", "", "")
	assert.JSONEq(t, `[{"name":"stock-1","price":100,"popularity":50},{"name":"stock-2","price":200,"popularity":10}]`, w.Body.String())

	// 価格だけを変更しても人気順位は変わらない
	w = do(r, http.MethodPatch, "/stocks/stock-1/price", `{"price":120}`, auth)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"stock-1","price":120,"popularity":50}`, w.Body.String())

	w = do(r, http.MethodPut, "/stocks/stock-2", `{"price":250,"popularity":1}`, auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/stocks/stock-1", "", auth)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodDelete, "/stocks/stock-1", "", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/stocks", "", "")
	assert.JSONEq(t, `[{"name":"stock-2","price":250,"popularity":1}]`, w.Body.String())
}

// TestRouter_WriteRoutesRequireAuth は更新系ルートがJWTなしで401を返すことを検証します。
func TestRouter_WriteRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	r, _ := setupRouter(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/stocks", `{"name":"x","price":1}`},
		{http.MethodPut, "/stocks/x", `{"price":1}`},
		{http.MethodPatch, "/stocks/x/popularity", `{"popularity":1}`},
		{http.MethodPatch, "/stocks/x/price", `{"price":1}`},
		{http.MethodDelete, "/stocks/x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			w := do(r, tt.method, tt.path, tt.body, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	w := do(r, http.MethodGet, "/stocks", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

// TestRouter_HealthAndReadiness はヘルスチェックと疎通確認のルートを検証します。
func TestRouter_HealthAndReadiness(t *testing.T) {
	t.Parallel()

	r, _ := setupRouter(t, func(ctx context.Context) error { return errors.New("down") })

	w := do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodHead, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// TestRouter_Metrics はHTTPとストレージのメトリクスが公開されることを検証します。
func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	r, _ := setupRouter(t, nil)

	do(r, http.MethodGet, "/stocks/missing", "", "")

	w := do(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "stocks_http_requests_total")
	assert.Contains(t, body, `route="/stocks/:name"`)
	assert.Contains(t, body, "stocks_storage_operations_total")
	assert.Contains(t, body, `outcome="absent"`)
}
