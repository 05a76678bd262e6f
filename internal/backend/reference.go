package backend

import (
	"context"
	"net/http"

	"github.com/hitoshi/eduportal/internal/model"
)

type referencePayload struct {
	Data []struct {
		ID  string `json:"_id"`
		Nom string `json:"nom"`
	} `json:"data"`
}

// ListGrades は学年一覧を取得する。
func (c *Client) ListGrades(ctx context.Context) ([]model.ReferenceItem, error) {
	return c.listReference(ctx, "list_grades", "/grades")
}

// ListRegions は地域一覧を取得する。
func (c *Client) ListRegions(ctx context.Context) ([]model.ReferenceItem, error) {
	return c.listReference(ctx, "list_regions", "/regions")
}

func (c *Client) listReference(ctx context.Context, endpoint, path string) ([]model.ReferenceItem, error) {
	var resp referencePayload
	if err := c.do(ctx, endpoint, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	items := make([]model.ReferenceItem, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.ID == "" || d.Nom == "" {
			continue
		}
		items = append(items, model.ReferenceItem{ID: d.ID, Name: d.Nom})
	}
	return items, nil
}
