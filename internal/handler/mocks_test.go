package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/eduportal/internal/access"
	"github.com/hitoshi/eduportal/internal/auth"
	"github.com/hitoshi/eduportal/internal/middleware"
	"github.com/hitoshi/eduportal/internal/model"
	"github.com/hitoshi/eduportal/internal/subscription"
	"github.com/hitoshi/eduportal/internal/user"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn          func(ctx context.Context, in auth.LoginInput) (*model.Session, error)
	registerFn       func(ctx context.Context, in auth.RegisterInput) error
	forgotPasswordFn func(ctx context.Context, in auth.ForgotPasswordInput) error
	resetPasswordFn  func(ctx context.Context, in auth.ResetPasswordInput) error
	logoutFn         func(ctx context.Context, sessionID string) error
	loggedOut        []string
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) error {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, in auth.ForgotPasswordInput) error {
	if m.forgotPasswordFn != nil {
		return m.forgotPasswordFn(ctx, in)
	}
	return nil
}

func (m *mockAuthService) ResetPassword(ctx context.Context, in auth.ResetPasswordInput) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, in)
	}
	return nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	m.loggedOut = append(m.loggedOut, sessionID)
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockAccessService struct {
	resolveAccessFn func(ctx context.Context, sess model.Session) access.Navigation
}

func (m *mockAccessService) ResolveAccess(ctx context.Context, sess model.Session) access.Navigation {
	if m.resolveAccessFn != nil {
		return m.resolveAccessFn(ctx, sess)
	}
	return access.Navigation{RedirectTo: "/"}
}

type mockProfileService struct {
	getProfileFn    func(ctx context.Context, sess model.Session) (*model.UserProfile, error)
	updateProfileFn func(ctx context.Context, sess model.Session, in user.ProfileInput) (*model.UserProfile, error)
}

func (m *mockProfileService) GetProfile(ctx context.Context, sess model.Session) (*model.UserProfile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, sess)
	}
	return nil, nil
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, sess model.Session, in user.ProfileInput) (*model.UserProfile, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, sess, in)
	}
	return nil, nil
}

type mockSubscriptionService struct {
	getOverviewFn func(ctx context.Context, sess model.Session) (*subscription.Overview, error)
}

func (m *mockSubscriptionService) GetOverview(ctx context.Context, sess model.Session) (*subscription.Overview, error) {
	if m.getOverviewFn != nil {
		return m.getOverviewFn(ctx, sess)
	}
	return &subscription.Overview{}, nil
}

type mockReferenceService struct {
	grades  []model.ReferenceItem
	regions []model.ReferenceItem
}

func (m *mockReferenceService) Grades(context.Context) []model.ReferenceItem  { return m.grades }
func (m *mockReferenceService) Regions(context.Context) []model.ReferenceItem { return m.regions }

type mockSessionFinder struct {
	sessions map[string]*model.Session
}

func (m *mockSessionFinder) FindByID(_ context.Context, id string) (*model.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(context.Context) error { return m.err }

// --- ヘルパー ---

func newTestCodec() *middleware.CookieCodec {
	return middleware.NewCookieCodec("test-session-secret-0123456789", middleware.CookieConfig{MaxAge: 3600})
}

// sessionCookie はcodecで署名したセッションCookieを返す。
func sessionCookie(t *testing.T, codec *middleware.CookieCodec, sessionID string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := codec.Write(rec, sessionID); err != nil {
		t.Fatalf("failed to write session cookie: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

// findCookie はレスポンスから指定名のCookieを探す。
func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func studentSession() model.Session {
	return model.Session{
		ID:          "sess-1",
		UserID:      "U1",
		ProfileType: model.ProfileStudent,
		Token:       "tok-U1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

// withSession はセッションミドルウェア通過後のリクエストを作る。
func withSession(req *http.Request, sess model.Session) *http.Request {
	return req.WithContext(middleware.ContextWithSession(req.Context(), sess))
}
