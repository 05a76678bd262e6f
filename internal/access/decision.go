// Package access はログイン直後の遷移先判定を提供する。
//
// 生徒セッションに対して、プロファイル取得、学年の有無、購読の有無、
// 購読終了日の4段階を順に評価し、4種類のDecisionのいずれかを返す。
// 判定中の失敗はすべていずれかのDecisionに吸収され、呼び出し元にエラーは返らない。
// 画面遷移（リダイレクト先と表示遅延）はNavigatorが別途適用する。
package access

// Decision はアクセス判定の結果。
type Decision string

const (
	// DecisionCompleteProfile は学年未設定のためプロファイル入力画面へ誘導する。
	DecisionCompleteProfile Decision = "complete_profile"
	// DecisionPurchaseSubscription は購読なしまたは期限切れのため購入画面へ誘導する。
	DecisionPurchaseSubscription Decision = "purchase_subscription"
	// DecisionEnterDashboard は有効な購読を確認できたためダッシュボードへ誘導する。
	DecisionEnterDashboard Decision = "enter_dashboard"
	// DecisionFallbackDashboard はプロファイル確認に失敗したが、ダッシュボードへ誘導する。
	DecisionFallbackDashboard Decision = "fallback_dashboard"
)

// Reason は判定に至った理由。ログとメトリクスのラベルに使う。
type Reason string

const (
	ReasonProfileUnavailable  Reason = "profile_unavailable"
	ReasonGradeMissing        Reason = "grade_missing"
	ReasonNoSubscription      Reason = "no_subscription"
	ReasonSubscriptionActive  Reason = "subscription_active"
	ReasonSubscriptionExpired Reason = "subscription_expired"
	ReasonInvalidEndDate      Reason = "invalid_end_date"
)

// Outcome はResolverが返す判定結果とユーザー向けメッセージ。
type Outcome struct {
	Decision Decision
	Reason   Reason
	Message  string
	// SessionRejected はバックエンドがトークンを拒否したことを示す。
	// 判定自体は変わらないが、呼び出し元はポータルセッションを破棄する。
	SessionRejected bool
}

// outcomes は理由ごとの判定とメッセージの対応表。
// 終了日が解析できない場合は期限切れと同じく購入画面へ誘導する。
var outcomes = map[Reason]Outcome{
	ReasonProfileUnavailable: {
		Decision: DecisionFallbackDashboard,
		Message:  "Connexion réussie. Redirection vers votre tableau de bord...",
	},
	ReasonGradeMissing: {
		Decision: DecisionCompleteProfile,
		Message:  "Veuillez compléter votre profil (classe) pour accéder aux cours. Redirection...",
	},
	ReasonNoSubscription: {
		Decision: DecisionPurchaseSubscription,
		Message:  "Aucun abonnement actif. Redirection vers la page d'abonnement...",
	},
	ReasonSubscriptionActive: {
		Decision: DecisionEnterDashboard,
		Message:  "Connexion réussie. Redirection vers vos cours...",
	},
	ReasonSubscriptionExpired: {
		Decision: DecisionPurchaseSubscription,
		Message:  "Votre abonnement a expiré. Redirection vers la page d'abonnement...",
	},
	ReasonInvalidEndDate: {
		Decision: DecisionPurchaseSubscription,
		Message:  "Votre abonnement a expiré. Redirection vers la page d'abonnement...",
	},
}

// outcomeFor は理由に対応するOutcomeを返す。
func outcomeFor(reason Reason) Outcome {
	o := outcomes[reason]
	o.Reason = reason
	return o
}
