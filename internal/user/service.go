// Package user は生徒プロファイル管理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/eduportal/internal/backend"
	"github.com/hitoshi/eduportal/internal/model"
	"github.com/hitoshi/eduportal/internal/security"
	"github.com/hitoshi/eduportal/internal/validation"
)

// UserAPI はトークン付きバックエンドクライアントのユーザー操作。
type UserAPI interface {
	GetUser(ctx context.Context, userID string) (*model.UserProfile, error)
	UpdateUser(ctx context.Context, userID string, update backend.ProfileUpdate) (*model.UserProfile, error)
}

// ClientFactory はセッションのトークンを付与したクライアントを返す。
type ClientFactory func(token string) UserAPI

// ProfileInput はプロファイル編集フォームの入力。
type ProfileInput struct {
	FirstName string `json:"prenom" validate:"notblank,max=100"`
	LastName  string `json:"nom" validate:"notblank,max=100"`
	Phone     string `json:"telephone" validate:"omitempty,phone"`
	GradeID   string `json:"gradeId" validate:"notblank,max=64"`
	RegionID  string `json:"regionId" validate:"omitempty,max=64"`
}

// Service は生徒プロファイルのサービス層。
// access.ProfileSourceとしてアクセス判定にも使われる。
type Service struct {
	clients   ClientFactory
	validator *validation.Validator
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(clients ClientFactory, validator *validation.Validator, sanitizer security.TextSanitizer) *Service {
	return &Service{
		clients:   clients,
		validator: validator,
		sanitizer: sanitizer,
	}
}

// GetProfile はセッションのユーザーのプロファイルを取得する。
func (s *Service) GetProfile(ctx context.Context, sess model.Session) (*model.UserProfile, error) {
	profile, err := s.clients(sess.Token).GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, mapBackendError("プロファイルの取得", sess.UserID, err)
	}
	return profile, nil
}

// UpdateProfile はプロファイルを検証・サニタイズしてバックエンドに保存する。
func (s *Service) UpdateProfile(ctx context.Context, sess model.Session, in ProfileInput) (*model.UserProfile, error) {
	in.FirstName = s.sanitizer.Sanitize(in.FirstName)
	in.LastName = s.sanitizer.Sanitize(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.GradeID = strings.TrimSpace(in.GradeID)
	in.RegionID = strings.TrimSpace(in.RegionID)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	profile, err := s.clients(sess.Token).UpdateUser(ctx, sess.UserID, backend.ProfileUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     strings.ReplaceAll(in.Phone, " ", ""),
		GradeID:   in.GradeID,
		RegionID:  in.RegionID,
	})
	if err != nil {
		return nil, mapBackendError("プロファイルの更新", sess.UserID, err)
	}

	slog.Info("プロファイルを更新しました",
		slog.String("user_id", sess.UserID),
		slog.String("grade_id", in.GradeID),
	)
	return profile, nil
}

// mapBackendError はバックエンドのエラーをユーザー向けエラーに変換する。
// 401はセッション失効として扱い、呼び出し元がポータルセッションを破棄する。
func mapBackendError(op, userID string, err error) error {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return model.NewSessionExpiredError()
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, backend.ErrEmptyUser):
		return model.NewUserNotFoundError()
	case backend.IsRejected(err):
		return model.NewBackendRejectedError(backend.MessageOf(err))
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%sが中断されました: %w", op, err)
	}
	slog.Error(op+"に失敗しました",
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)
	return model.NewBackendUnavailableError()
}
