package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/eduportal/internal/access"
	"github.com/hitoshi/eduportal/internal/auth"
	"github.com/hitoshi/eduportal/internal/middleware"
	"github.com/hitoshi/eduportal/internal/model"
)

func newTestAuthHandler(svc *mockAuthService, acc *mockAccessService) (*AuthHandler, *middleware.CookieCodec) {
	if acc == nil {
		acc = &mockAccessService{}
	}
	codec := newTestCodec()
	return NewAuthHandler(svc, acc, codec), codec
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

// --- POST /api/auth/login ---

func TestAuthHandler_Login_Success_SetsCookieAndReturnsNavigation(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(_ context.Context, in auth.LoginInput) (*model.Session, error) {
			if in.Email != "awa@example.com" || in.Password != "secret123" {
				t.Errorf("unexpected input: %+v", in)
			}
			s := studentSession()
			return &s, nil
		},
	}
	acc := &mockAccessService{
		resolveAccessFn: func(_ context.Context, sess model.Session) access.Navigation {
			if sess.ID != "sess-1" || sess.Token != "tok-U1" {
				t.Errorf("resolver received %+v", sess)
			}
			return access.Navigation{
				Decision:   access.DecisionPurchaseSubscription,
				Reason:     access.ReasonSubscriptionExpired,
				Message:    "Votre abonnement a expiré.",
				RedirectTo: "/dashboard/subscription",
				Delay:      1500 * time.Millisecond,
			}
		},
	}
	h, codec := newTestAuthHandler(svc, acc)

	w := httptest.NewRecorder()
	h.Login(w, postJSON("/api/auth/login", `{"email":"awa@example.com","password":"secret123"}`))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	cookie := findCookie(resp, middleware.SessionCookieName)
	if cookie == nil {
		t.Fatal("session cookie should be set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if id, err := codec.Read(req); err != nil || id != "sess-1" {
		t.Errorf("cookie decodes to %q, %v", id, err)
	}

	body := decodeBody[loginResponse](t, w)
	if body.Decision != "purchase_subscription" || body.Reason != "subscription_expired" {
		t.Errorf("decision = %q reason = %q", body.Decision, body.Reason)
	}
	if body.RedirectTo != "/dashboard/subscription" || body.RedirectDelayMs != 1500 {
		t.Errorf("redirect = %q after %dms", body.RedirectTo, body.RedirectDelayMs)
	}
	if body.UserID != "U1" || body.ProfileType != "Student" {
		t.Errorf("user = %q profile = %q", body.UserID, body.ProfileType)
	}
}

func TestAuthHandler_Login_BackendMessageShownVerbatim(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(context.Context, auth.LoginInput) (*model.Session, error) {
			return nil, model.NewLoginFailedError("Compte désactivé")
		},
	}
	h, _ := newTestAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Login(w, postJSON("/api/auth/login", `{"email":"awa@example.com","password":"x"}`))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	body := decodeBody[middleware.ErrorResponseBody](t, w)
	if body.Code != model.ErrCodeLoginFailed || body.Message != "Compte désactivé" {
		t.Errorf("body = %+v", body)
	}
	if findCookie(w.Result(), middleware.SessionCookieName) != nil {
		t.Error("no session cookie should be set on failure")
	}
}

func TestAuthHandler_Login_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", model.NewValidationError("email invalide"), http.StatusBadRequest},
		{"backend unavailable", model.NewBackendUnavailableError(), http.StatusServiceUnavailable},
		{"internal", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{loginFn: func(context.Context, auth.LoginInput) (*model.Session, error) {
				return nil, tt.err
			}}
			h, _ := newTestAuthHandler(svc, nil)

			w := httptest.NewRecorder()
			h.Login(w, postJSON("/api/auth/login", `{"email":"a@b.fr","password":"x"}`))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	called := false
	svc := &mockAuthService{loginFn: func(context.Context, auth.LoginInput) (*model.Session, error) {
		called = true
		return nil, nil
	}}
	h, _ := newTestAuthHandler(svc, nil)

	for _, body := range []string{"", "{", "[1,2]"} {
		w := httptest.NewRecorder()
		h.Login(w, postJSON("/api/auth/login", body))

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
		if got := decodeBody[middleware.ErrorResponseBody](t, w); got.Code != model.ErrCodeInvalidBody {
			t.Errorf("body %q: code = %q", body, got.Code)
		}
	}
	if called {
		t.Error("service must not be called for an invalid body")
	}
}

func TestAuthHandler_Login_ValidationFieldsInResponse(t *testing.T) {
	svc := &mockAuthService{loginFn: func(context.Context, auth.LoginInput) (*model.Session, error) {
		apiErr := model.NewValidationError("email doit être une adresse email valide")
		apiErr.Fields = map[string]string{"email": "email doit être une adresse email valide"}
		return nil, apiErr
	}}
	h, _ := newTestAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Login(w, postJSON("/api/auth/login", `{"email":"x","password":"y"}`))

	body := decodeBody[middleware.ErrorResponseBody](t, w)
	if _, ok := body.Fields["email"]; !ok {
		t.Errorf("fields = %v, want email", body.Fields)
	}
}

// --- 登録・パスワード再設定 ---

func TestAuthHandler_Register(t *testing.T) {
	var got auth.RegisterInput
	svc := &mockAuthService{registerFn: func(_ context.Context, in auth.RegisterInput) error {
		got = in
		return nil
	}}
	h, _ := newTestAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Register(w, postJSON("/api/auth/register",
		`{"email":"awa@example.com","password":"secret123","prenom":"Awa","nom":"Koné","telephone":"+22501020304","gradeId":"G10"}`))

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if got.FirstName != "Awa" || got.LastName != "Koné" || got.GradeID != "G10" {
		t.Errorf("input = %+v", got)
	}
}

func TestAuthHandler_Register_BackendRejected(t *testing.T) {
	svc := &mockAuthService{registerFn: func(context.Context, auth.RegisterInput) error {
		return model.NewBackendRejectedError("Cet email est déjà utilisé")
	}}
	h, _ := newTestAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Register(w, postJSON("/api/auth/register", `{"email":"awa@example.com"}`))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	if body := decodeBody[middleware.ErrorResponseBody](t, w); body.Message != "Cet email est déjà utilisé" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestAuthHandler_ForgotPassword_Accepted(t *testing.T) {
	h, _ := newTestAuthHandler(&mockAuthService{}, nil)

	w := httptest.NewRecorder()
	h.ForgotPassword(w, postJSON("/api/auth/password/forgot", `{"email":"awa@example.com"}`))

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	var got auth.ResetPasswordInput
	svc := &mockAuthService{resetPasswordFn: func(_ context.Context, in auth.ResetPasswordInput) error {
		got = in
		return nil
	}}
	h, _ := newTestAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.ResetPassword(w, postJSON("/api/auth/password/reset", `{"token":"abc","password":"nouveau123"}`))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got.Token != "abc" || got.Password != "nouveau123" {
		t.Errorf("input = %+v", got)
	}
}

// --- ログアウト・セッション ---

func TestAuthHandler_Logout_DeletesSessionAndClearsCookie(t *testing.T) {
	svc := &mockAuthService{}
	h, codec := newTestAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(sessionCookie(t, codec, "sess-1"))
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "sess-1" {
		t.Errorf("logged out %v, want [sess-1]", svc.loggedOut)
	}
	cookie := findCookie(w.Result(), middleware.SessionCookieName)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("cookie should be cleared: %+v", cookie)
	}
}

func TestAuthHandler_Logout_WithoutCookie(t *testing.T) {
	svc := &mockAuthService{}
	h, _ := newTestAuthHandler(svc, nil)

	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if len(svc.loggedOut) != 0 {
		t.Errorf("Logout should not be called: %v", svc.loggedOut)
	}
}

func TestAuthHandler_Logout_ServiceErrorStillClearsCookie(t *testing.T) {
	svc := &mockAuthService{logoutFn: func(context.Context, string) error { return errors.New("db down") }}
	h, codec := newTestAuthHandler(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(sessionCookie(t, codec, "sess-1"))
	w := httptest.NewRecorder()
	h.Logout(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if findCookie(w.Result(), middleware.SessionCookieName) == nil {
		t.Error("cookie should be cleared")
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h, _ := newTestAuthHandler(&mockAuthService{}, nil)

	w := httptest.NewRecorder()
	h.Me(w, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), studentSession()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody[meResponse](t, w)
	if body.UserID != "U1" || body.ProfileType != "Student" {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Me_NoSession(t *testing.T) {
	h, _ := newTestAuthHandler(&mockAuthService{}, nil)

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthHandler_Access_ReRunsResolver(t *testing.T) {
	calls := 0
	acc := &mockAccessService{resolveAccessFn: func(_ context.Context, sess model.Session) access.Navigation {
		calls++
		return access.Navigation{
			Decision:   access.DecisionEnterDashboard,
			Reason:     access.ReasonSubscriptionActive,
			RedirectTo: "/dashboard",
		}
	}}
	h, _ := newTestAuthHandler(&mockAuthService{}, acc)

	w := httptest.NewRecorder()
	h.Access(w, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/access", nil), studentSession()))

	if calls != 1 {
		t.Errorf("resolver called %d times, want 1", calls)
	}
	body := decodeBody[navigationResponse](t, w)
	if body.Decision != "enter_dashboard" || body.RedirectTo != "/dashboard" {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Access_RejectedTokenDestroysSession(t *testing.T) {
	acc := &mockAccessService{resolveAccessFn: func(context.Context, model.Session) access.Navigation {
		return access.Navigation{
			Decision:        access.DecisionFallbackDashboard,
			Reason:          access.ReasonProfileUnavailable,
			RedirectTo:      "/dashboard",
			SessionRejected: true,
		}
	}}
	svc := &mockAuthService{}
	h, _ := newTestAuthHandler(svc, acc)

	w := httptest.NewRecorder()
	h.Access(w, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/access", nil), studentSession()))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(svc.loggedOut) != 1 || svc.loggedOut[0] != "sess-1" {
		t.Errorf("destroyed sessions = %v, want [sess-1]", svc.loggedOut)
	}
	if cookie := findCookie(w.Result(), middleware.SessionCookieName); cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("session cookie should be cleared: %+v", cookie)
	}
	if body := decodeBody[middleware.ErrorResponseBody](t, w); body.Code != model.ErrCodeSessionExpired {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeSessionExpired)
	}
}
