package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/hitoshi/eduportal/internal/model"
)

// ErrEmptyUser はユーザー取得レスポンスにdataが含まれないことを示す。
var ErrEmptyUser = errors.New("backend: user response has no data")

// userPayload はバックエンドのユーザーレコード。
type userPayload struct {
	ID        string `json:"_id"`
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Email     string `json:"email"`
	Phone     string `json:"telephone"`
	GradeID   string `json:"gradeId"`
	RegionID  string `json:"regionId"`
}

// ProfileUpdate は PUT /users/{id} のリクエストボディ。
type ProfileUpdate struct {
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Phone     string `json:"telephone"`
	GradeID   string `json:"gradeId"`
	RegionID  string `json:"regionId,omitempty"`
}

// GetUser はユーザーIDでプロファイルを取得する。
// GET /users/{id} → {"data": {...}}
func (c *Client) GetUser(ctx context.Context, userID string) (*model.UserProfile, error) {
	var resp struct {
		Data *userPayload `json:"data"`
	}
	if err := c.do(ctx, "get_user", http.MethodGet, "/users/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, ErrEmptyUser
	}
	return toUserProfile(userID, resp.Data), nil
}

// UpdateUser はプロファイルを更新し、更新後のプロファイルを返す。
// バックエンドが本文を返さない場合は送信内容から組み立てる。
func (c *Client) UpdateUser(ctx context.Context, userID string, update ProfileUpdate) (*model.UserProfile, error) {
	var resp struct {
		Data *userPayload `json:"data"`
	}
	if err := c.do(ctx, "update_user", http.MethodPut, "/users/"+url.PathEscape(userID), update, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return &model.UserProfile{
			UserID:    userID,
			FirstName: update.FirstName,
			LastName:  update.LastName,
			Phone:     update.Phone,
			GradeID:   update.GradeID,
			RegionID:  update.RegionID,
		}, nil
	}
	return toUserProfile(userID, resp.Data), nil
}

func toUserProfile(userID string, p *userPayload) *model.UserProfile {
	id := p.ID
	if id == "" {
		id = userID
	}
	return &model.UserProfile{
		UserID:    id,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
		GradeID:   p.GradeID,
		RegionID:  p.RegionID,
	}
}
