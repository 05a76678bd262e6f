package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/eduportal/internal/access"
	"github.com/hitoshi/eduportal/internal/auth"
	"github.com/hitoshi/eduportal/internal/middleware"
	"github.com/hitoshi/eduportal/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, in auth.LoginInput) (*model.Session, error)
	Register(ctx context.Context, in auth.RegisterInput) error
	ForgotPassword(ctx context.Context, in auth.ForgotPasswordInput) error
	ResetPassword(ctx context.Context, in auth.ResetPasswordInput) error
	Logout(ctx context.Context, sessionID string) error
}

// AccessServiceInterface はログイン後の遷移先を決定するサービスインターフェース。
type AccessServiceInterface interface {
	ResolveAccess(ctx context.Context, sess model.Session) access.Navigation
}

// navigationResponse はアクセス判定結果のレスポンス。
// ブラウザはredirect_delay_ms経過後にredirect_toへ遷移する。
type navigationResponse struct {
	Decision        string `json:"decision,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Message         string `json:"message"`
	RedirectTo      string `json:"redirect_to"`
	RedirectDelayMs int64  `json:"redirect_delay_ms"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	UserID      string `json:"user_id"`
	ProfileType string `json:"profile_type"`
	navigationResponse
}

// meResponse は現在のセッション情報。
type meResponse struct {
	UserID      string    `json:"user_id"`
	ProfileType string    `json:"profile_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthHandler は資格情報ログインとセッション関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	access  AccessServiceInterface
	codec   *middleware.CookieCodec
	errors  errorResponder
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, accessService AccessServiceInterface, codec *middleware.CookieCodec) *AuthHandler {
	return &AuthHandler{
		service: service,
		access:  accessService,
		codec:   codec,
		errors:  errorResponder{sessions: service, codec: codec},
	}
}

// Login は資格情報を検証してセッションを発行し、遷移先を返す。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if !decodeJSON(w, r, &in) {
		return
	}

	session, err := h.service.Login(r.Context(), in)
	if err != nil {
		h.errors.handle(w, r, err)
		return
	}

	if err := h.codec.Write(w, session.ID); err != nil {
		slog.Error("failed to encode session cookie", slog.String("error", err.Error()))
		if logoutErr := h.service.Logout(r.Context(), session.ID); logoutErr != nil {
			slog.Error("failed to discard session", slog.String("error", logoutErr.Error()))
		}
		middleware.WriteInternalServerError(w)
		return
	}

	nav := h.access.ResolveAccess(r.Context(), *session)
	writeJSON(w, http.StatusOK, loginResponse{
		UserID:             session.UserID,
		ProfileType:        string(session.ProfileType),
		navigationResponse: toNavigationResponse(nav),
	})
}

// Access は現在のセッションでアクセス判定をやり直す。
// バックエンドがトークンを拒否した場合はセッションを破棄して401を返す。
// GET /api/auth/access
func (h *AuthHandler) Access(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	nav := h.access.ResolveAccess(r.Context(), sess)
	if nav.SessionRejected {
		h.errors.handle(w, r, model.NewSessionExpiredError())
		return
	}
	writeJSON(w, http.StatusOK, toNavigationResponse(nav))
}

// Register は生徒アカウントを作成する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.service.Register(r.Context(), in); err != nil {
		h.errors.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{
		Message: "Compte créé. Vous pouvez maintenant vous connecter.",
	})
}

// ForgotPassword はパスワード再設定メールの送信を依頼する。
// アカウントの有無にかかわらず202を返す。
// POST /api/auth/password/forgot
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ForgotPasswordInput
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), in); err != nil {
		h.errors.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, messageResponse{
		Message: "Si un compte existe pour cet email, un lien de réinitialisation a été envoyé.",
	})
}

// ResetPassword は再設定トークンで新しいパスワードを設定する。
// POST /api/auth/password/reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ResetPasswordInput
	if !decodeJSON(w, r, &in) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), in); err != nil {
		h.errors.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Votre mot de passe a été mis à jour.",
	})
}

// Logout はセッションを破棄する。Cookieが無効でも204を返す。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.codec.Read(r)
	switch {
	case err == nil:
		if logoutErr := h.service.Logout(r.Context(), sessionID); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	case !errors.Is(err, middleware.ErrNoSessionCookie):
		slog.Warn("logout with invalid session cookie", slog.String("error", err.Error()))
	}

	h.codec.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のセッション情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		UserID:      sess.UserID,
		ProfileType: string(sess.ProfileType),
		ExpiresAt:   sess.ExpiresAt,
	})
}

func toNavigationResponse(nav access.Navigation) navigationResponse {
	return navigationResponse{
		Decision:        string(nav.Decision),
		Reason:          string(nav.Reason),
		Message:         nav.Message,
		RedirectTo:      nav.RedirectTo,
		RedirectDelayMs: nav.Delay.Milliseconds(),
	}
}
