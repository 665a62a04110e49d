package handlers

import (
	"time"

	"blogcms/internal/blog"
	"blogcms/internal/models"
)

// listTimeLayout formats published_at in post listings, e.g. "04.May 10:30".
const listTimeLayout = "02.Jan 15:04"

type categoryJSON struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description"`
	ParentID    *int64    `json:"parent_id"`
	ParentTitle *string   `json:"parent_title"`
	PostsCount  int       `json:"posts_count"`
	IsRoot      bool      `json:"is_root"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func presentCategory(tree blog.Tree, c *models.Category) categoryJSON {
	return categoryJSON{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		ParentTitle: tree.ParentTitle(c),
		PostsCount:  c.PostsCount,
		IsRoot:      tree.IsRoot(c),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func presentCategories(tree blog.Tree, cs []models.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(cs))
	for i := range cs {
		out = append(out, presentCategory(tree, &cs[i]))
	}
	return out
}

// categorySummary accompanies the posts of one category.
type categorySummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

type postListUser struct {
	Name string `json:"name"`
}

type postListCategory struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type postListJSON struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Slug        string           `json:"slug"`
	Excerpt     *string          `json:"excerpt"`
	IsPublished bool             `json:"is_published"`
	PublishedAt string           `json:"published_at"`
	User        postListUser     `json:"user"`
	Category    postListCategory `json:"category"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func presentPostList(ps []models.Post) []postListJSON {
	out := make([]postListJSON, 0, len(ps))
	for _, p := range ps {
		item := postListJSON{
			ID:          p.ID,
			Title:       p.Title,
			Slug:        p.Slug,
			Excerpt:     p.Excerpt,
			IsPublished: p.IsPublished,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
		if p.PublishedAt != nil {
			item.PublishedAt = p.PublishedAt.Format(listTimeLayout)
		}
		if p.User != nil {
			item.User.Name = p.User.Name
		}
		if p.Category != nil {
			item.Category = postListCategory{Title: p.Category.Title, Slug: p.Category.Slug}
		}
		out = append(out, item)
	}
	return out
}

type postUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type postCategory struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type postJSON struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Excerpt     *string      `json:"excerpt"`
	ContentRaw  string       `json:"content_raw"`
	ContentHTML string       `json:"content_html"`
	IsPublished bool         `json:"is_published"`
	PublishedAt *time.Time   `json:"published_at"`
	User        postUser     `json:"user"`
	Category    postCategory `json:"category"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func presentPost(p *models.Post) postJSON {
	out := postJSON{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		ContentRaw:  p.ContentRaw,
		ContentHTML: p.ContentHTML,
		IsPublished: p.IsPublished,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.User != nil {
		out.User = postUser{ID: p.User.ID, Name: p.User.Name}
	}
	if p.Category != nil {
		out.Category = postCategory{ID: p.Category.ID, Title: p.Category.Title, Slug: p.Category.Slug}
	}
	return out
}
