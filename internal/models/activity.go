// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Activity actions recorded after successful writes.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Activity entity types.
const (
	EntityCategory = "category"
	EntityPost     = "post"
)

// ActivityEntry is one row of the blog activity log.
type ActivityEntry struct {
	ID         int64     `db:"id"`
	EntityType string    `db:"entity_type"`
	EntityID   int64     `db:"entity_id"`
	Action     string    `db:"action"`
	CreatedAt  time.Time `db:"created_at"`
}
