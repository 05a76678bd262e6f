package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduportal/internal/model"
	"github.com/hitoshi/eduportal/internal/user"
)

// ProfileServiceInterface はプロファイルハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, sess model.Session) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, sess model.Session, in user.ProfileInput) (*model.UserProfile, error)
}

// ProfileHandler は生徒プロファイルのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
	errors  errorResponder
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, errs errorResponder) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		errors:  errs,
	}
}

// profileResponse はプロファイルのAPIレスポンス。
type profileResponse struct {
	UserID          string `json:"user_id"`
	FirstName       string `json:"prenom"`
	LastName        string `json:"nom"`
	Email           string `json:"email"`
	Phone           string `json:"telephone"`
	GradeID         string `json:"gradeId"`
	RegionID        string `json:"regionId"`
	ProfileComplete bool   `json:"profile_complete"`
}

// GetProfile は現在の生徒のプロファイルを返す。
// GET /api/me/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), sess)
	if err != nil {
		h.errors.handle(w, r, err)
		return
	}
	if profile == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// UpdateProfile はプロファイルを更新する。
// PUT /api/me/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var in user.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), sess, in)
	if err != nil {
		h.errors.handle(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func toProfileResponse(p *model.UserProfile) profileResponse {
	return profileResponse{
		UserID:          p.UserID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		GradeID:         p.GradeID,
		RegionID:        p.RegionID,
		ProfileComplete: p.HasGrade(),
	}
}
