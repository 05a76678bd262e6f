// Package reference は登録フォームやプロファイル編集で使う参照データ（学年、地域）を提供する。
//
// バックエンドから取得できない場合は固定リストを返すため、呼び出し元にエラーは返らない。
package reference

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/eduportal/internal/model"
)

// 参照データの種類。キャッシュキーとメトリクスラベルを兼ねる。
const (
	KindGrades  = "grades"
	KindRegions = "regions"
)

// ReferenceAPI はバックエンドの参照データ取得操作。
type ReferenceAPI interface {
	ListGrades(ctx context.Context) ([]model.ReferenceItem, error)
	ListRegions(ctx context.Context) ([]model.ReferenceItem, error)
}

// FallbackRecorder は固定リストの使用を記録するインターフェース。
type FallbackRecorder interface {
	RecordReferenceFallback(kind string)
}

// Service は参照データのサービス層。
type Service struct {
	api      ReferenceAPI
	cache    Cache
	ttl      time.Duration
	recorder FallbackRecorder
	logger   *slog.Logger
}

// NewService はServiceを生成する。cacheがnilの場合はMemoryCacheを使う。
func NewService(api ReferenceAPI, cache Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Service{
		api:    api,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// WithRecorder は固定リスト使用の記録先を設定する。
func (s *Service) WithRecorder(rec FallbackRecorder) *Service {
	s.recorder = rec
	return s
}

// Grades は学年一覧を返す。
func (s *Service) Grades(ctx context.Context) []model.ReferenceItem {
	return s.list(ctx, KindGrades, s.api.ListGrades, fallbackGrades)
}

// Regions は地域一覧を返す。
func (s *Service) Regions(ctx context.Context) []model.ReferenceItem {
	return s.list(ctx, KindRegions, s.api.ListRegions, fallbackRegions)
}

func (s *Service) list(
	ctx context.Context,
	kind string,
	fetch func(context.Context) ([]model.ReferenceItem, error),
	fallback []model.ReferenceItem,
) []model.ReferenceItem {
	items, ok, err := s.cache.Get(ctx, kind)
	if err != nil {
		s.logger.Warn("reference cache read failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
	if ok {
		return items
	}

	items, err = fetch(ctx)
	if err != nil || len(items) == 0 {
		attrs := []any{slog.String("kind", kind)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.Warn("using fallback reference list", attrs...)
		if s.recorder != nil {
			s.recorder.RecordReferenceFallback(kind)
		}
		// 固定リストはキャッシュしない。次回リクエストで再取得する
		return cloneItems(fallback)
	}

	if err := s.cache.Set(ctx, kind, items, s.ttl); err != nil {
		s.logger.Warn("reference cache write failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
	return items
}
