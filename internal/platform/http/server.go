package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// NewServer はAPI公開用に設定されたHTTPサーバーを作成します。
//
// 設定:
//   - ReadHeaderTimeout: ヘッダー受信の最大時間（Slowloris対策）
//   - ReadTimeout / WriteTimeout: リクエスト本文の読み込みとレスポンス書き込みの上限
//   - IdleTimeout: keep-alive 接続の維持期間
//
// 注意:
//   - http.Server のゼロ値はタイムアウトを持たないため、常にこの関数で生成すること
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}

// Serve は srv を起動し、ctx がキャンセルされると grace の範囲でグレースフルに停止します。
func Serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server", "grace", grace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
