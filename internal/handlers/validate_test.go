package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcms/internal/blog"
)

func TestValidateStruct_CategoryRequest(t *testing.T) {
	tests := []struct {
		name  string
		req   categoryRequest
		field string
		want  string
	}{
		{"valid", categoryRequest{Title: "Travel"}, "", ""},
		{"empty title", categoryRequest{}, "title", "The title field is required."},
		{"title too long", categoryRequest{Title: strings.Repeat("a", 256)}, "title", "The title field must not be greater than 255 characters."},
		{"slug too long", categoryRequest{Title: "t", Slug: strings.Repeat("a", 256)}, "slug", "The slug field must not be greater than 255 characters."},
		{"description too long", categoryRequest{Title: "t", Description: ptr(strings.Repeat("a", 1001))}, "description", "The description field must not be greater than 1000 characters."},
		{"non-positive parent", categoryRequest{Title: "t", ParentID: ptr(int64(-1))}, "parent_id", "The selected parent id is invalid."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStruct(&tt.req)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var fields blog.FieldErrors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, []string{tt.want}, fields[tt.field])
		})
	}
}

func TestValidateStruct_PostRequest(t *testing.T) {
	err := validateStruct(&postRequest{Title: "t", Excerpt: ptr(strings.Repeat("e", 501))})

	var fields blog.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, []string{"The category id field is required."}, fields["category_id"])
	assert.Equal(t, []string{"The content raw field is required."}, fields["content_raw"])
	assert.Equal(t, []string{"The excerpt field must not be greater than 500 characters."}, fields["excerpt"])
	assert.NotContains(t, fields, "title")
}

func TestParseDate(t *testing.T) {
	want := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2026-06-01T09:00:00Z", "2026-06-01T09:00", "2026-06-01 09:00:00", "2026-06-01 09:00"} {
		got, err := parseDate(raw)
		require.NoError(t, err, raw)
		require.NotNil(t, got, raw)
		assert.True(t, got.Equal(want), raw)
	}

	day, err := parseDate("2026-06-01")
	require.NoError(t, err)
	assert.True(t, day.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)))

	blank, err := parseDate("   ")
	assert.NoError(t, err)
	assert.Nil(t, blank)

	_, err = parseDate("next tuesday")
	assert.Error(t, err)
}
