// Package subscription は生徒の購読状態を扱うドメインロジックを提供する。
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/eduportal/internal/access"
	"github.com/hitoshi/eduportal/internal/backend"
	"github.com/hitoshi/eduportal/internal/model"
)

// SubscriptionAPI はトークン付きバックエンドクライアントの購読操作。
type SubscriptionAPI interface {
	GetMySubscription(ctx context.Context) (*model.SubscriptionStatus, error)
}

// ClientFactory はセッションのトークンを付与したクライアントを返す。
type ClientFactory func(token string) SubscriptionAPI

// Overview はダッシュボードに表示する購読の概要。
type Overview struct {
	PlanName  string
	StartDate string
	EndDate   string
	Active    bool
	// ExpiresAt は終了日を解析できた場合のみ設定される
	ExpiresAt *time.Time
}

// Service は購読状態のサービス層。
// access.SubscriptionSourceとしてアクセス判定にも使われる。
type Service struct {
	clients ClientFactory
	now     func() time.Time
	loc     *time.Location
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(clients ClientFactory, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		clients: clients,
		now:     time.Now,
		loc:     loc,
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GetSubscription はバックエンドの購読レコードをそのまま返す。
// トークンが拒否された場合はSESSION_EXPIREDを返す。
func (s *Service) GetSubscription(ctx context.Context, sess model.Session) (*model.SubscriptionStatus, error) {
	status, err := s.clients(sess.Token).GetMySubscription(ctx)
	if errors.Is(err, backend.ErrUnauthorized) {
		return nil, model.NewSessionExpiredError()
	}
	if err != nil {
		return nil, fmt.Errorf("購読の取得に失敗しました: %w", err)
	}
	return status, nil
}

// GetOverview は購読の概要を返す。
// 購読が存在しない場合（404または空）はActive=falseの空の概要を返す。
func (s *Service) GetOverview(ctx context.Context, sess model.Session) (*Overview, error) {
	status, err := s.clients(sess.Token).GetMySubscription(ctx)
	switch {
	case err == nil:
	case errors.Is(err, backend.ErrNotFound):
		return &Overview{}, nil
	case errors.Is(err, backend.ErrUnauthorized):
		return nil, model.NewSessionExpiredError()
	case errors.Is(err, context.Canceled):
		return nil, fmt.Errorf("購読の取得が中断されました: %w", err)
	default:
		slog.Error("購読の取得に失敗しました",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewBackendUnavailableError()
	}

	if !status.IsPresent() {
		return &Overview{}, nil
	}

	overview := &Overview{
		PlanName:  status.PlanName,
		StartDate: status.StartDate,
		EndDate:   status.EndDate,
	}

	expiry, err := access.ParseLocalizedDate(status.EndDate, s.loc)
	if err != nil {
		slog.Warn("購読終了日を解析できません",
			slog.String("user_id", sess.UserID),
			slog.String("end_date", status.EndDate),
			slog.String("error", err.Error()),
		)
		return overview, nil
	}
	overview.ExpiresAt = &expiry
	overview.Active = expiry.After(s.now())
	return overview, nil
}
