package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduportal/internal/model"
)

// ReferenceServiceInterface は参照データハンドラーが必要とするサービスインターフェース。
// 取得失敗時は固定リストが返るため、エラーを返さない。
type ReferenceServiceInterface interface {
	Grades(ctx context.Context) []model.ReferenceItem
	Regions(ctx context.Context) []model.ReferenceItem
}

// ReferenceHandler は学年・地域一覧のHTTPハンドラー。
type ReferenceHandler struct {
	service ReferenceServiceInterface
}

// NewReferenceHandler はReferenceHandlerを生成する。
func NewReferenceHandler(service ReferenceServiceInterface) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

type referenceListResponse struct {
	Data []model.ReferenceItem `json:"data"`
}

// ListGrades は学年一覧を返す。
// GET /api/reference/grades
func (h *ReferenceHandler) ListGrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, referenceListResponse{Data: h.service.Grades(r.Context())})
}

// ListRegions は地域一覧を返す。
// GET /api/reference/regions
func (h *ReferenceHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, referenceListResponse{Data: h.service.Regions(r.Context())})
}
