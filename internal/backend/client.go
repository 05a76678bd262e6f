// Package backend は外部の学習プラットフォームAPIのクライアントを提供する。
// ユーザー、購読、参照データ、認証はすべてこのAPIが所有しており、
// ポータルはHTTP経由で呼び出すだけである。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// userAgent はバックエンドへのリクエストに付与するUser-Agent。
	userAgent = "Eduportal/1.0"
	// maxResponseSize はレスポンスボディの読み取り上限（1MB）。
	maxResponseSize = 1 << 20
)

// CallObserver はバックエンド呼び出しの結果を記録するインターフェース。
// metrics.Collectorが実装する。statusCodeは通信失敗時に0となる。
type CallObserver interface {
	ObserveBackendCall(endpoint string, statusCode int, duration time.Duration)
}

// Client はバックエンドAPIのクライアント。
// WithTokenで生成したコピーはすべてのリクエストにBearerトークンを付与する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	observer   CallObserver
	token      string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは末尾のスラッシュを含まないこと。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// WithObserver は呼び出し結果の記録先を設定したコピーを返す。
func (c *Client) WithObserver(observer CallObserver) *Client {
	cp := *c
	cp.observer = observer
	return &cp
}

// WithToken はBearerトークンを付与するコピーを返す。
// 元のClientは変更しない。
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// do はリクエストを送信し、2xxの場合にレスポンスJSONをoutへデコードする。
// ボディが空またはnullの場合、outは変更されない。
func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		c.logger.Error("バックエンドAPIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(endpoint, resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Error("バックエンドAPIのレスポンスのパースに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// statusError は非2xxレスポンスをエラーに変換する。
// 401はErrUnauthorized、404はErrNotFoundをラップする。
func (c *Client) statusError(endpoint string, statusCode int, raw []byte) error {
	statusErr := &StatusError{
		StatusCode: statusCode,
		Message:    extractMessage(raw),
	}

	level := slog.LevelWarn
	if statusCode >= 500 {
		level = slog.LevelError
	}
	c.logger.Log(context.Background(), level, "バックエンドAPIがエラーステータスを返しました",
		slog.String("endpoint", endpoint),
		slog.Int("http_status", statusCode),
	)

	return statusErr
}

func (c *Client) observe(endpoint string, statusCode int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(endpoint, statusCode, d)
	}
}

// extractMessage はエラーレスポンスからユーザー向けメッセージを取り出す。
// {"message": "..."} または {"error": "..."} 形式に対応する。
func extractMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// IsUnavailable は通信失敗または5xxなど、バックエンド側の障害を示すエラーかを判定する。
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}
