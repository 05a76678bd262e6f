package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized はバックエンドがトークンまたは資格情報を拒否したことを示す。
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrNotFound は対象リソースが存在しないことを示す。
	ErrNotFound = errors.New("backend: not found")
)

// StatusError はバックエンドが非2xxステータスを返したことを表す。
type StatusError struct {
	StatusCode int
	Message    string // バックエンドが返したメッセージ（なければ空）
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Is は401をErrUnauthorized、404をErrNotFoundとしてerrors.Isに一致させる。
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}

// MessageOf はエラーがStatusErrorであればバックエンドのメッセージを返す。
func MessageOf(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Message
	}
	return ""
}

// IsRejected はバックエンドが4xxでリクエストを拒否したかを判定する。
func IsRejected(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) &&
		statusErr.StatusCode >= http.StatusBadRequest &&
		statusErr.StatusCode < http.StatusInternalServerError
}
