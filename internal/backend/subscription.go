package backend

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduportal/internal/model"
)

// subscriptionPayload は GET /subscriptions/me のレスポンス。
// {"nom": "Scolaire", "startDate": "1 septembre 2024", "endDate": "10 juin 2025"}
type subscriptionPayload struct {
	Nom       string `json:"nom"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// GetMySubscription はトークン所有者の現在の購読を取得する。
// ボディが空またはnullの場合は (nil, nil) を返す。
// 購読がない場合にバックエンドが404を返すときはErrNotFoundに一致するエラーとなる。
func (c *Client) GetMySubscription(ctx context.Context) (*model.SubscriptionStatus, error) {
	var payload *subscriptionPayload
	if err := c.do(ctx, "get_my_subscription", http.MethodGet, "/subscriptions/me", nil, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return &model.SubscriptionStatus{
		PlanName:  payload.Nom,
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
	}, nil
}
