// Package auth はバックエンドへの資格情報認証とポータルセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/eduportal/internal/backend"
	"github.com/hitoshi/eduportal/internal/model"
	"github.com/hitoshi/eduportal/internal/repository"
	"github.com/hitoshi/eduportal/internal/security"
	"github.com/hitoshi/eduportal/internal/validation"
)

// ログイン結果のメトリクスラベル
const (
	LoginResultSuccess     = "success"
	LoginResultRejected    = "rejected"
	LoginResultUnavailable = "unavailable"
	LoginResultInvalid     = "invalid"
)

// BackendAuth はバックエンドの認証系エンドポイントのインターフェース。
type BackendAuth interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
	Register(ctx context.Context, req backend.RegisterRequest) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

// LoginRecorder はログイン結果を記録するインターフェース。
type LoginRecorder interface {
	RecordLogin(result string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// LoginInput はログインフォームの入力。
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput は新規登録フォームの入力。
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"password"`
	FirstName string `json:"prenom" validate:"notblank,max=100"`
	LastName  string `json:"nom" validate:"notblank,max=100"`
	Phone     string `json:"telephone" validate:"required,phone"`
	GradeID   string `json:"gradeId" validate:"omitempty,max=64"`
	RegionID  string `json:"regionId" validate:"omitempty,max=64"`
}

// ForgotPasswordInput はパスワード再設定依頼の入力。
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput はパスワード再設定の入力。
type ResetPasswordInput struct {
	Token    string `json:"token" validate:"notblank"`
	Password string `json:"password" validate:"password"`
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	backend     BackendAuth
	sessionRepo repository.SessionRepository
	validator   *validation.Validator
	sanitizer   security.TextSanitizer
	config      ServiceConfig
	recorder    LoginRecorder
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	backendAuth BackendAuth,
	sessionRepo repository.SessionRepository,
	validator *validation.Validator,
	sanitizer security.TextSanitizer,
	config ServiceConfig,
) *Service {
	return &Service{
		backend:     backendAuth,
		sessionRepo: sessionRepo,
		validator:   validator,
		sanitizer:   sanitizer,
		config:      config,
		now:         time.Now,
	}
}

// WithRecorder はログイン結果の記録先を設定する。
func (s *Service) WithRecorder(rec LoginRecorder) *Service {
	s.recorder = rec
	return s
}

// WithClock は現在時刻の取得関数を差し替える。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login はバックエンドで資格情報を検証し、ポータルセッションを発行する。
// 資格情報が拒否された場合はバックエンドのメッセージをそのまま持つLOGIN_FAILEDを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*model.Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		s.recordLogin(LoginResultInvalid)
		return nil, err
	}

	result, err := s.backend.Login(ctx, in.Email, in.Password)
	if err != nil {
		if backend.IsRejected(err) {
			s.recordLogin(LoginResultRejected)
			slog.Info("login rejected by backend", slog.String("error", err.Error()))
			return nil, model.NewLoginFailedError(backend.MessageOf(err))
		}
		s.recordLogin(LoginResultUnavailable)
		slog.Error("login failed: backend unavailable", slog.String("error", err.Error()))
		return nil, model.NewBackendUnavailableError()
	}

	session, err := s.createSession(ctx, result)
	if err != nil {
		s.recordLogin(LoginResultUnavailable)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recordLogin(LoginResultSuccess)
	slog.Info("user logged in",
		slog.String("user_id", session.UserID),
		slog.String("profile_type", string(session.ProfileType)),
	)
	return session, nil
}

// Register は入力を検証し、生徒アカウントの作成をバックエンドに依頼する。
// 氏名からはマークアップを除去する。
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = s.sanitizer.Sanitize(in.FirstName)
	in.LastName = s.sanitizer.Sanitize(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := s.validator.Struct(in); err != nil {
		return err
	}

	err := s.backend.Register(ctx, backend.RegisterRequest{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     strings.ReplaceAll(in.Phone, " ", ""),
		GradeID:   strings.TrimSpace(in.GradeID),
		RegionID:  strings.TrimSpace(in.RegionID),
		Profil:    string(model.ProfileStudent),
	})
	if err != nil {
		return backendFailure("register", err)
	}

	slog.Info("student account registered")
	return nil
}

// ForgotPassword はパスワード再設定メールの送信をバックエンドに依頼する。
// アカウントの有無を漏らさないため、入力検証以外のエラーは呼び出し元に返さない。
func (s *Service) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	in.Email = normalizeEmail(in.Email)
	if err := s.validator.Struct(in); err != nil {
		return err
	}

	if err := s.backend.ForgotPassword(ctx, in.Email); err != nil {
		level := slog.LevelInfo
		if backend.IsUnavailable(err) {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "forgot password request not accepted by backend", slog.String("error", err.Error()))
	}
	return nil
}

// ResetPassword は再設定トークンで新しいパスワードを設定する。
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Token = strings.TrimSpace(in.Token)
	if err := s.validator.Struct(in); err != nil {
		return err
	}

	if err := s.backend.ResetPassword(ctx, in.Token, in.Password); err != nil {
		return backendFailure("reset password", err)
	}
	return nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetSession は有効なセッションを取得する。存在しないか期限切れの場合はnilを返す。
func (s *Service) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// createSession はセッションを作成し永続化する。
// 有効期限はSessionMaxAgeとバックエンドトークンのexpのうち早い方。
func (s *Service) createSession(ctx context.Context, result *backend.LoginResult) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(s.config.SessionMaxAge) * time.Second)
	if exp, ok := tokenExpiry(result.Token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	if !expiresAt.After(now) {
		return nil, fmt.Errorf("backend token already expired at %s", expiresAt.Format(time.RFC3339))
	}

	session := &model.Session{
		ID:          sessionID,
		UserID:      result.UserID,
		ProfileType: result.ProfileType,
		Token:       result.Token,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

func (s *Service) recordLogin(result string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(result)
	}
}

// tokenExpiry はバックエンドトークンがJWTであればexpクレームを返す。
// 署名はバックエンドが検証するため、ここでは検証しない。
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// backendFailure はバックエンドのエラーをユーザー向けエラーに変換する。
func backendFailure(op string, err error) error {
	if backend.IsRejected(err) {
		slog.Info(op+" rejected by backend", slog.String("error", err.Error()))
		return model.NewBackendRejectedError(backend.MessageOf(err))
	}
	slog.Error(op+" failed: backend unavailable", slog.String("error", err.Error()))
	return model.NewBackendUnavailableError()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
