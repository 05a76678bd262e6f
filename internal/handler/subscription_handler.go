package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/eduportal/internal/model"
	"github.com/hitoshi/eduportal/internal/subscription"
)

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// GetOverview は購読の概要を返す。購読がない場合はActive=falseの概要を返す。
	GetOverview(ctx context.Context, sess model.Session) (*subscription.Overview, error)
}

// SubscriptionHandler は購読状態のHTTPハンドラー。
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
	errors  errorResponder
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(service SubscriptionServiceInterface, errs errorResponder) *SubscriptionHandler {
	return &SubscriptionHandler{
		service: service,
		errors:  errs,
	}
}

// subscriptionResponse は購読情報のAPIレスポンス。
type subscriptionResponse struct {
	PlanName  string     `json:"plan_name"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// GetSubscription は現在の購読状態を返す。
// GET /api/me/subscription
func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	overview, err := h.service.GetOverview(r.Context(), sess)
	if err != nil {
		h.errors.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, subscriptionResponse{
		PlanName:  overview.PlanName,
		StartDate: overview.StartDate,
		EndDate:   overview.EndDate,
		Active:    overview.Active,
		ExpiresAt: overview.ExpiresAt,
	})
}
