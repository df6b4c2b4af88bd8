package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atendezap/insight/internal/chat"
)

// catalogCacheTTL bounds staleness of the cached catalog. Catalog edits
// happen in the dashboard a few times a day at most.
const catalogCacheTTL = 60 * time.Second

func catalogCacheKey(companyID uuid.UUID) string {
	return "catalog:services:" + companyID.String()
}

// GetActiveServices returns the company's active catalog in stable
// creation order. That ordering is load-bearing: the detector resolves
// exact score ties to the earlier catalog entry.
func (s *Store) GetActiveServices(ctx context.Context, companyID uuid.UUID) ([]chat.Service, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, catalogCacheKey(companyID)).Bytes(); err == nil {
			var services []chat.Service
			if err := json.Unmarshal(cached, &services); err == nil {
				return services, nil
			}
			// Corrupt entry: fall through to the database.
		}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, name, COALESCE(category, ''),
		       base_price, COALESCE(duration_minutes, 0), is_active
		FROM services
		WHERE company_id = $1 AND is_active
		ORDER BY created_at, id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("get active services: %w", err)
	}
	defer rows.Close()

	var services []chat.Service
	for rows.Next() {
		var svc chat.Service
		err := rows.Scan(
			&svc.ID, &svc.CompanyID, &svc.Name, &svc.Category,
			&svc.BasePrice, &svc.DurationMinutes, &svc.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get active services: %w", err)
	}

	if s.rdb != nil && len(services) > 0 {
		if payload, err := json.Marshal(services); err == nil {
			// Best-effort: a failed cache write never fails the read.
			s.rdb.Set(ctx, catalogCacheKey(companyID), payload, catalogCacheTTL)
		}
	}

	return services, nil
}
