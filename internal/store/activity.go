// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// activity.go records successful writes to categories and posts for audit
// and for the dashboard's recent-activity list.
package store

import (
	"context"
	"fmt"

	"blogcms/internal/models"
)

// ActivityStore handles activity log operations.
type ActivityStore struct {
	db *DB
}

// NewActivityStore creates a new ActivityStore.
func NewActivityStore(db *DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Log records a write event. Failures are logged and swallowed so the
// write that triggered them still succeeds.
func (s *ActivityStore) Log(ctx context.Context, entityType string, entityID int64, action string) {
	_, err := s.db.exec(ctx, "activity.log", psql.Insert("blog_activity_log").
		Columns("entity_type", "entity_id", "action").
		Values(entityType, entityID, action))
	if err != nil {
		s.db.obs.logger(ctx).Warn("failed to log activity",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
		return
	}
	s.db.obs.logger(ctx).Debug("activity logged",
		"entity_type", entityType,
		"entity_id", entityID,
		"action", action,
	)
}

// Recent returns the most recent activity entries, newest first.
func (s *ActivityStore) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	var entries []models.ActivityEntry
	err := s.db.selectAll(ctx, "activity.recent", &entries, psql.
		Select("id", "entity_type", "entity_id", "action", "created_at").
		From("blog_activity_log").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	return entries, nil
}
