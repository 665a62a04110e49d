// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pagination parses page parameters from list requests and builds
// the meta/links envelope returned around paginated results. Range
// arithmetic (offset, limit, counts) is left to the store queries.
package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	// DefaultPerPage is the page size when per_page is absent or invalid.
	DefaultPerPage = 10

	// DefaultPage is the page number when page is absent or invalid.
	DefaultPage = 1

	// MaxPerPage caps per_page to keep list queries bounded.
	MaxPerPage = 100

	// MaxPage caps page so that the row offset always fits in an int.
	MaxPage = math.MaxInt/MaxPerPage + 1
)

// Page selects one window of a listing.
type Page struct {
	Number  int
	PerPage int
}

// Normalize replaces non-positive values with defaults and caps PerPage
// and Number.
func (p Page) Normalize() Page {
	if p.Number <= 0 {
		p.Number = DefaultPage
	}
	if p.Number > MaxPage {
		p.Number = MaxPage
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.PerPage
}

// Limit returns the number of rows to fetch.
func (p Page) Limit() int {
	return p.Normalize().PerPage
}

// FromQuery reads page and per_page from query values. Missing, malformed
// or non-positive values fall back to defaults; perPage overrides
// DefaultPerPage when positive.
func FromQuery(q url.Values, perPage int) Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	p := Page{
		Number:  positiveInt(q.Get("page"), DefaultPage),
		PerPage: positiveInt(q.Get("per_page"), perPage),
	}
	return p.Normalize()
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// Meta describes the window returned to the client. From and To are nil
// when the page holds no items.
type Meta struct {
	CurrentPage int  `json:"current_page"`
	From        *int `json:"from"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	To          *int `json:"to"`
	Total       int  `json:"total"`
}

// NewMeta builds Meta for page p holding count items out of total.
func NewMeta(p Page, count, total int) Meta {
	p = p.Normalize()

	lastPage := (total + p.PerPage - 1) / p.PerPage
	if lastPage < 1 {
		lastPage = 1
	}

	m := Meta{
		CurrentPage: p.Number,
		LastPage:    lastPage,
		PerPage:     p.PerPage,
		Total:       total,
	}
	if count > 0 {
		from := p.Offset() + 1
		to := p.Offset() + count
		m.From, m.To = &from, &to
	}
	return m
}

// HasPrev reports whether a previous page exists.
func (m Meta) HasPrev() bool { return m.CurrentPage > 1 }

// HasNext reports whether a next page exists.
func (m Meta) HasNext() bool { return m.CurrentPage < m.LastPage }

// PrevPage returns the previous page number.
func (m Meta) PrevPage() int { return m.CurrentPage - 1 }

// NextPage returns the next page number.
func (m Meta) NextPage() int { return m.CurrentPage + 1 }

// Links holds navigation URLs. Prev and Next are nil at the edges.
type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// NewLinks builds navigation links from the request URL, preserving every
// other query parameter.
func NewLinks(base *url.URL, m Meta) Links {
	l := Links{
		First: pageURL(base, 1),
		Last:  pageURL(base, m.LastPage),
	}
	if m.HasPrev() {
		prev := pageURL(base, m.PrevPage())
		l.Prev = &prev
	}
	if m.HasNext() {
		next := pageURL(base, m.NextPage())
		l.Next = &next
	}
	return l
}

func pageURL(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Envelope is the JSON body of a paginated listing.
type Envelope[T any] struct {
	Data  []T   `json:"data"`
	Meta  Meta  `json:"meta"`
	Links Links `json:"links"`
}

// NewEnvelope wraps items. A nil slice is encoded as an empty array.
func NewEnvelope[T any](items []T, m Meta, l Links) Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return Envelope[T]{Data: items, Meta: m, Links: l}
}
