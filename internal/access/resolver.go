package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/eduportal/internal/model"
)

// ProfileSource はセッション所有者のプロファイルを取得する。
type ProfileSource interface {
	GetProfile(ctx context.Context, sess model.Session) (*model.UserProfile, error)
}

// SubscriptionSource はセッション所有者の現在の購読を取得する。
// 購読がない場合は (nil, nil) またはエラーのどちらを返してもよい。
type SubscriptionSource interface {
	GetSubscription(ctx context.Context, sess model.Session) (*model.SubscriptionStatus, error)
}

// DecisionRecorder は判定結果を記録する。
type DecisionRecorder interface {
	RecordDecision(decision, reason string)
}

// profileState はプロファイル取得ステップの結果。
type profileState int

const (
	profileFailed profileState = iota
	profileGradeMissing
	profileComplete
)

// subscriptionState は購読取得と終了日評価ステップの結果。
type subscriptionState int

const (
	subscriptionAbsent subscriptionState = iota
	subscriptionActive
	subscriptionExpired
	subscriptionInvalidDate
)

// Resolver は生徒セッションのアクセス判定を行う。
// 状態を持たず、同じバックエンド応答と時刻に対して常に同じOutcomeを返す。
type Resolver struct {
	profiles      ProfileSource
	subscriptions SubscriptionSource
	now           func() time.Time
	loc           *time.Location
	logger        *slog.Logger
	recorder      DecisionRecorder
}

// ResolverOption はResolverの任意設定。
type ResolverOption func(*Resolver)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithLocation は終了日を解釈するタイムゾーンを設定する。
func WithLocation(loc *time.Location) ResolverOption {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithRecorder は判定結果の記録先を設定する。
func WithRecorder(rec DecisionRecorder) ResolverOption {
	return func(r *Resolver) {
		r.recorder = rec
	}
}

// NewResolver は新しいResolverを生成する。
func NewResolver(profiles ProfileSource, subscriptions SubscriptionSource, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		profiles:      profiles,
		subscriptions: subscriptions,
		now:           time.Now,
		loc:           time.Local,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve はセッションに対する判定を返す。エラーは返さない。
// プロファイル取得に失敗した場合、購読は取得しない。
// 取得元がpanicした場合もプロファイル確認失敗として扱う。
func (r *Resolver) Resolve(ctx context.Context, sess model.Session) (o Outcome) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("access resolution panicked",
				slog.String("user_id", sess.UserID),
				slog.String("panic", fmt.Sprint(p)),
			)
			o = r.finish(sess, ReasonProfileUnavailable)
		}
	}()

	profile, err := r.checkProfile(ctx, sess)
	switch profile {
	case profileFailed:
		o = r.finish(sess, ReasonProfileUnavailable)
		o.SessionRejected = isSessionRejected(err)
		return o
	case profileGradeMissing:
		return r.finish(sess, ReasonGradeMissing)
	case profileComplete:
	}

	sub, err := r.checkSubscription(ctx, sess)
	switch sub {
	case subscriptionActive:
		return r.finish(sess, ReasonSubscriptionActive)
	case subscriptionExpired:
		return r.finish(sess, ReasonSubscriptionExpired)
	case subscriptionInvalidDate:
		return r.finish(sess, ReasonInvalidEndDate)
	default:
		o = r.finish(sess, ReasonNoSubscription)
		o.SessionRejected = isSessionRejected(err)
		return o
	}
}

// isSessionRejected はバックエンドがセッションのトークンを拒否したかを判定する。
func isSessionRejected(err error) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeSessionExpired
}

func (r *Resolver) checkProfile(ctx context.Context, sess model.Session) (profileState, error) {
	profile, err := r.profiles.GetProfile(ctx, sess)
	if err != nil {
		r.logger.Warn("profile verification failed",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return profileFailed, err
	}
	if profile == nil {
		r.logger.Warn("profile verification failed",
			slog.String("user_id", sess.UserID),
			slog.String("error", "empty profile"),
		)
		return profileFailed, nil
	}
	if !profile.HasGrade() {
		return profileGradeMissing, nil
	}
	return profileComplete, nil
}

func (r *Resolver) checkSubscription(ctx context.Context, sess model.Session) (subscriptionState, error) {
	sub, err := r.subscriptions.GetSubscription(ctx, sess)
	if err != nil {
		r.logger.Info("subscription lookup treated as absent",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		return subscriptionAbsent, err
	}
	if !sub.IsPresent() {
		return subscriptionAbsent, nil
	}

	status, err := EvaluateExpiry(sub.EndDate, r.now(), r.loc)
	if err != nil {
		var perr *DateParseError
		if errors.As(err, &perr) {
			r.logger.Warn("subscription end date could not be parsed",
				slog.String("user_id", sess.UserID),
				slog.String("end_date", perr.Input),
				slog.String("reason", perr.Reason),
			)
		}
		return subscriptionInvalidDate, nil
	}

	switch status {
	case ExpiryActive:
		return subscriptionActive, nil
	default:
		return subscriptionExpired, nil
	}
}

func (r *Resolver) finish(sess model.Session, reason Reason) Outcome {
	o := outcomeFor(reason)
	r.logger.Info("access resolved",
		slog.String("user_id", sess.UserID),
		slog.String("decision", string(o.Decision)),
		slog.String("reason", string(o.Reason)),
	)
	if r.recorder != nil {
		r.recorder.RecordDecision(string(o.Decision), string(o.Reason))
	}
	return o
}
