package pagination

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		perPage int
		want    Page
	}{
		{name: "defaults", query: "", want: Page{Number: 1, PerPage: 10}},
		{name: "explicit values", query: "page=3&per_page=25", want: Page{Number: 3, PerPage: 25}},
		{name: "non numeric falls back", query: "page=abc&per_page=x", want: Page{Number: 1, PerPage: 10}},
		{name: "zero falls back", query: "page=0&per_page=0", want: Page{Number: 1, PerPage: 10}},
		{name: "negative falls back", query: "page=-2&per_page=-5", want: Page{Number: 1, PerPage: 10}},
		{name: "per_page capped", query: "per_page=5000", want: Page{Number: 1, PerPage: MaxPerPage}},
		{name: "custom default size", query: "page=2", perPage: 5, want: Page{Number: 2, PerPage: 5}},
		{name: "huge page capped", query: "page=9223372036854775807", want: Page{Number: MaxPage, PerPage: 10}},
		{name: "page beyond int falls back", query: "page=99999999999999999999", want: Page{Number: 1, PerPage: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, FromQuery(q, tt.perPage))
		})
	}
}

func TestPage_OffsetLimit(t *testing.T) {
	p := Page{Number: 3, PerPage: 10}
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 10, p.Limit())

	assert.Equal(t, 0, Page{}.Offset())
	assert.Equal(t, DefaultPerPage, Page{}.Limit())
}

func TestPage_OffsetNeverOverflows(t *testing.T) {
	for _, perPage := range []int{1, DefaultPerPage, MaxPerPage, math.MaxInt} {
		q := url.Values{"page": {strconv.Itoa(math.MaxInt)}, "per_page": {strconv.Itoa(perPage)}}
		p := FromQuery(q, DefaultPerPage)

		off := p.Offset()
		assert.GreaterOrEqual(t, off, 0, "per_page=%d", perPage)
		assert.Equal(t, (MaxPage-1)*p.PerPage, off, "per_page=%d", perPage)
	}

	m := NewMeta(Page{Number: math.MaxInt, PerPage: MaxPerPage}, 0, 3)
	assert.Equal(t, MaxPage, m.CurrentPage)
	assert.Nil(t, m.From)
	assert.False(t, m.HasNext())
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Page{Number: 2, PerPage: 10}, 10, 35)

	assert.Equal(t, 2, m.CurrentPage)
	assert.Equal(t, 4, m.LastPage)
	assert.Equal(t, 10, m.PerPage)
	assert.Equal(t, 35, m.Total)
	require.NotNil(t, m.From)
	require.NotNil(t, m.To)
	assert.Equal(t, 11, *m.From)
	assert.Equal(t, 20, *m.To)
	assert.True(t, m.HasPrev())
	assert.True(t, m.HasNext())
}

func TestNewMeta_LastPartialPage(t *testing.T) {
	m := NewMeta(Page{Number: 4, PerPage: 10}, 5, 35)

	assert.Equal(t, 31, *m.From)
	assert.Equal(t, 35, *m.To)
	assert.False(t, m.HasNext())
}

func TestNewMeta_Empty(t *testing.T) {
	m := NewMeta(Page{Number: 1, PerPage: 10}, 0, 0)

	assert.Equal(t, 1, m.LastPage)
	assert.Nil(t, m.From)
	assert.Nil(t, m.To)
	assert.False(t, m.HasPrev())
	assert.False(t, m.HasNext())
}

func TestNewLinks(t *testing.T) {
	base, err := url.Parse("http://blog.test/api/blog/posts?per_page=10&page=2")
	require.NoError(t, err)

	l := NewLinks(base, NewMeta(Page{Number: 2, PerPage: 10}, 10, 30))

	assert.Equal(t, "http://blog.test/api/blog/posts?page=1&per_page=10", l.First)
	assert.Equal(t, "http://blog.test/api/blog/posts?page=3&per_page=10", l.Last)
	require.NotNil(t, l.Prev)
	require.NotNil(t, l.Next)
	assert.Equal(t, "http://blog.test/api/blog/posts?page=1&per_page=10", *l.Prev)
	assert.Equal(t, "http://blog.test/api/blog/posts?page=3&per_page=10", *l.Next)
}

func TestNewLinks_Edges(t *testing.T) {
	base, _ := url.Parse("/api/blog/categories")
	l := NewLinks(base, NewMeta(Page{Number: 1, PerPage: 10}, 3, 3))

	assert.Nil(t, l.Prev)
	assert.Nil(t, l.Next)
	assert.Equal(t, "/api/blog/categories?page=1", l.First)
	assert.Equal(t, "/api/blog/categories?page=1", l.Last)
}

func TestEnvelope_EncodesEmptyData(t *testing.T) {
	base, _ := url.Parse("/x")
	m := NewMeta(Page{}, 0, 0)
	env := NewEnvelope[string](nil, m, NewLinks(base, m))

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data": [],
		"meta": {"current_page": 1, "from": null, "last_page": 1, "per_page": 10, "to": null, "total": 0},
		"links": {"first": "/x?page=1", "last": "/x?page=1", "prev": null, "next": null}
	}`, string(raw))
}
