package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/eduportal/internal/model"
)

// ErrMalformedLogin はログインレスポンスにトークンまたはユーザーIDが含まれないことを示す。
var ErrMalformedLogin = errors.New("backend: login response is missing token or user id")

// LoginResult はログイン成功時にバックエンドが返す情報。
type LoginResult struct {
	Token       string
	ProfileType model.ProfileType
	UserID      string
}

// loginResponse は POST /auth/login のレスポンス。
// {"data": {"profil": "Student", "data": "<token>", "userId": "..."}}
type loginResponse struct {
	Data struct {
		Profil string `json:"profil"`
		Token  string `json:"data"`
		UserID string `json:"userId"`
	} `json:"data"`
}

// RegisterRequest は POST /auth/register のリクエストボディ。
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Phone     string `json:"telephone"`
	GradeID   string `json:"gradeId,omitempty"`
	RegionID  string `json:"regionId,omitempty"`
	Profil    string `json:"profil"`
}

// Login はメールアドレスとパスワードで認証し、トークンとプロファイル情報を返す。
// 資格情報が拒否された場合はErrUnauthorizedに一致するStatusErrorを返す。
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp loginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(resp.Data.Token)
	userID := strings.TrimSpace(resp.Data.UserID)
	if token == "" || userID == "" {
		return nil, ErrMalformedLogin
	}

	return &LoginResult{
		Token:       token,
		ProfileType: model.ParseProfileType(resp.Data.Profil),
		UserID:      userID,
	}, nil
}

// Register は生徒アカウントを作成する。
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if req.Profil == "" {
		req.Profil = string(model.ProfileStudent)
	}
	return c.do(ctx, "register", http.MethodPost, "/auth/register", req, nil)
}

// ForgotPassword はパスワード再設定メールの送信を依頼する。
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, "forgot_password", http.MethodPost, "/auth/forgot-password", map[string]string{
		"email": email,
	}, nil)
}

// ResetPassword は再設定トークンを使って新しいパスワードを設定する。
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return c.do(ctx, "reset_password", http.MethodPost, "/auth/reset-password", map[string]string{
		"token":    resetToken,
		"password": newPassword,
	}, nil)
}
