// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, backend, system
	Action   string // ユーザー向け対処方法
	// Fields は入力検証エラー時のフィールド別メッセージ
	Fields map[string]string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeLoginFailed        = "LOGIN_FAILED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeBackendRejected    = "BACKEND_REJECTED"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidBody        = "INVALID_BODY"
	ErrCodeCSRFFailed         = "CSRF_VALIDATION_FAILED"
)

// defaultLoginFailedMessage はバックエンドがメッセージを返さなかった場合のログイン失敗文言。
const defaultLoginFailedMessage = "Email ou mot de passe incorrect."

// NewLoginFailedError はログイン失敗エラーを生成する。
// バックエンドのメッセージはそのままユーザーに表示する。
func NewLoginFailedError(backendMessage string) *APIError {
	msg := backendMessage
	if msg == "" {
		msg = defaultLoginFailedMessage
	}
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  msg,
		Category: "auth",
		Action:   "Vérifiez votre email et votre mot de passe puis réessayez.",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  detail,
		Category: "validation",
		Action:   "Corrigez les champs indiqués puis réessayez.",
	}
}

// NewInvalidBodyError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidBodyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBody,
		Message:  "Le corps de la requête est invalide.",
		Category: "validation",
		Action:   "Envoyez un objet JSON valide.",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentification requise.",
		Category: "auth",
		Action:   "Connectez-vous.",
	}
}

// NewSessionExpiredError はバックエンドがトークンを拒否した場合のエラーを生成する。
// このエラーを受け取ったハンドラーはポータルセッションを破棄する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "Votre session a expiré.",
		Category: "auth",
		Action:   "Reconnectez-vous.",
	}
}

// NewBackendRejectedError はバックエンドが入力を拒否した場合のエラーを生成する。
func NewBackendRejectedError(backendMessage string) *APIError {
	msg := backendMessage
	if msg == "" {
		msg = "La demande a été refusée."
	}
	return &APIError{
		Code:     ErrCodeBackendRejected,
		Message:  msg,
		Category: "validation",
		Action:   "Vérifiez les informations saisies.",
	}
}

// NewBackendUnavailableError はバックエンドに到達できない場合のエラーを生成する。
func NewBackendUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeBackendUnavailable,
		Message:  "Le service est momentanément indisponible.",
		Category: "backend",
		Action:   "Réessayez dans quelques instants.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "Utilisateur introuvable.",
		Category: "auth",
		Action:   "Reconnectez-vous.",
	}
}

// NewCSRFError はCSRFトークン検証に失敗した場合のエラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFFailed,
		Message:  "Jeton de sécurité invalide.",
		Category: "auth",
		Action:   "Rechargez la page puis réessayez.",
	}
}
