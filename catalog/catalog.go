// Package catalog proxies the public event catalog from the upstream backend
// with a short Redis cache so listing surfaces don't each re-fetch.
package catalog

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"bilhete/models"
	"bilhete/rdx"
	"bilhete/upstream"
)

const cacheTTL = 60 * time.Second

type Service struct {
	api *upstream.Client
}

func NewService(api *upstream.Client) *Service {
	return &Service{api: api}
}

// fetch runs one cached upstream GET. Redis errors fall through to the
// backend; the cache is an optimization, never a dependency.
func (s *Service) fetch(ctx context.Context, path, cacheKey, field string, out any) error {
	if cached, _ := rdx.RdxGet(cacheKey); cached != "" {
		if err := json.Unmarshal([]byte(cached), out); err == nil {
			return nil
		}
		// stale or corrupt entry; refetch below
	}

	raw, err := s.api.Do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	if err := upstream.Unwrap(raw, field, out); err != nil {
		return err
	}

	if data, err := json.Marshal(out); err == nil {
		if err := rdx.SetWithExpiry(cacheKey, string(data), cacheTTL); err != nil {
			log.Println("catalog: cache write failed:", err)
		}
	}
	return nil
}

func (s *Service) Events(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.fetch(ctx, "/events", "catalog:events", "events", &events)
	return events, err
}

func (s *Service) Event(ctx context.Context, eventID string) (models.Event, error) {
	var event models.Event
	err := s.fetch(ctx, "/events/"+eventID, "catalog:event:"+eventID, "event", &event)
	return event, err
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.fetch(ctx, "/categories", "catalog:categories", "categories", &cats)
	return cats, err
}
