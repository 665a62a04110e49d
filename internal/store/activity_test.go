// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcms/internal/models"
)

func TestActivityStoreLogAndRecent(t *testing.T) {
	db, raw := testDB(t)
	s := NewActivityStore(db)
	ctx := context.Background()

	// An id no real row uses, so cleanup cannot touch other entries.
	entityID := -time.Now().UnixNano()
	t.Cleanup(func() { raw.Exec("DELETE FROM blog_activity_log WHERE entity_id = $1", entityID) })

	s.Log(ctx, models.EntityPost, entityID, models.ActionCreate)
	s.Log(ctx, models.EntityPost, entityID, models.ActionDelete)

	var count int
	require.NoError(t, raw.Get(&count, "SELECT COUNT(*) FROM blog_activity_log WHERE entity_id = $1", entityID))
	assert.Equal(t, 2, count)

	entries, err := s.Recent(ctx, 50)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2)
}
