// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/eduportal/internal/middleware"
	"github.com/hitoshi/eduportal/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの上限（バイト）。
const maxRequestBodySize = 64 << 10

// SessionTerminator はバックエンドがトークンを拒否した際にポータルセッションを破棄する。
type SessionTerminator interface {
	Logout(ctx context.Context, sessionID string) error
}

// errorResponder はサービス層のエラーをHTTPレスポンスに変換する。
// SESSION_EXPIREDの場合はポータルセッションとCookieも破棄する。
type errorResponder struct {
	sessions SessionTerminator
	codec    *middleware.CookieCodec
}

func (e errorResponder) handle(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			slog.Info("request canceled", slog.String("path", r.URL.Path))
			return
		}
		slog.Error("internal server error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	if apiErr.Code == model.ErrCodeSessionExpired {
		e.terminate(w, r)
	}
	writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
}

// terminate はコンテキストのセッションを削除し、Cookieをクリアする。
func (e errorResponder) terminate(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok && e.sessions != nil {
		if err := e.sessions.Logout(r.Context(), sess.ID); err != nil {
			slog.Error("failed to destroy expired session",
				slog.String("user_id", sess.UserID),
				slog.String("error", err.Error()),
			)
		}
		slog.Info("backend rejected token, session destroyed", slog.String("user_id", sess.UserID))
	}
	if e.codec != nil {
		e.codec.Clear(w)
	}
}

// writeAPIErrorResponse は統一フォーマットでエラーを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed, model.ErrCodeInvalidBody:
		return http.StatusBadRequest
	case model.ErrCodeLoginFailed, model.ErrCodeUnauthorized, model.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case model.ErrCodeBackendRejected:
		return http.StatusUnprocessableEntity
	case model.ErrCodeCSRFFailed:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをJSONとして読み取る。
// 読み取れない場合はINVALID_BODYを書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(dst); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Debug("invalid request body", slog.String("error", err.Error()))
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidBodyError())
		return false
	}
	return true
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// messageResponse は本文がメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// requireSession はコンテキストからセッションを取得する。
// 取得できない場合は401を書き込みfalseを返す。
func requireSession(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return model.Session{}, false
	}
	return sess, true
}
