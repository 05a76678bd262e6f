package access

import (
	"context"
	"time"

	"github.com/hitoshi/eduportal/internal/model"
)

// Destinations は判定ごとの遷移先URL。
type Destinations struct {
	Landing       string
	Dashboard     string
	Profile       string
	Subscription  string
	TeacherPortal string
	AdminPortal   string
}

// Navigation はブラウザに返す遷移指示。
// Delayの経過後にRedirectToへ遷移する。
type Navigation struct {
	Decision        Decision
	Reason          Reason
	Message         string
	RedirectTo      string
	Delay           time.Duration
	SessionRejected bool
}

// Navigator はOutcomeを遷移指示に変換する。
type Navigator struct {
	dest  Destinations
	delay time.Duration
}

// NewNavigator は新しいNavigatorを生成する。
func NewNavigator(dest Destinations, delay time.Duration) *Navigator {
	if delay < 0 {
		delay = 0
	}
	return &Navigator{dest: dest, delay: delay}
}

// Navigate は生徒の判定結果を遷移指示に変換する。
func (n *Navigator) Navigate(o Outcome) Navigation {
	nav := Navigation{
		Decision:        o.Decision,
		Reason:          o.Reason,
		Message:         o.Message,
		Delay:           n.delay,
		SessionRejected: o.SessionRejected,
	}
	switch o.Decision {
	case DecisionCompleteProfile:
		nav.RedirectTo = n.dest.Profile
	case DecisionPurchaseSubscription:
		nav.RedirectTo = n.dest.Subscription
	case DecisionEnterDashboard, DecisionFallbackDashboard:
		nav.RedirectTo = n.dest.Dashboard
	default:
		nav.RedirectTo = n.dest.Landing
	}
	return nav
}

// ForProfile は生徒以外のプロファイル種別の固定遷移先を返す。
func (n *Navigator) ForProfile(pt model.ProfileType) Navigation {
	nav := Navigation{
		Message: "Connexion réussie. Redirection...",
		Delay:   n.delay,
	}
	switch pt {
	case model.ProfileTeacher:
		nav.RedirectTo = n.dest.TeacherPortal
	case model.ProfileAdmin:
		nav.RedirectTo = n.dest.AdminPortal
	default:
		nav.RedirectTo = n.dest.Landing
	}
	return nav
}

// Service は判定と遷移指示の生成をまとめて行う。
type Service struct {
	resolver  *Resolver
	navigator *Navigator
}

// NewService は新しいServiceを生成する。
func NewService(resolver *Resolver, navigator *Navigator) *Service {
	return &Service{resolver: resolver, navigator: navigator}
}

// ResolveAccess はセッションのプロファイル種別に応じて遷移指示を返す。
// 生徒の場合のみResolverによる判定を行う。
func (s *Service) ResolveAccess(ctx context.Context, sess model.Session) Navigation {
	if !sess.IsStudent() {
		return s.navigator.ForProfile(sess.ProfileType)
	}
	return s.navigator.Navigate(s.resolver.Resolve(ctx, sess))
}
