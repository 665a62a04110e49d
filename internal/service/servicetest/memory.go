// Package servicetest provides in-memory repositories and recorders for
// tests of the service layer and the HTTP handlers built on it.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"blogcms/internal/blog"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
)

// Memory holds categories, posts and users in maps and mirrors the store's
// behaviour: soft-deleted rows are invisible, slugs are unique among live
// rows and lookups that find nothing return (nil, nil).
type Memory struct {
	mu         sync.Mutex
	categories map[int64]models.Category
	posts      map[int64]models.Post
	users      map[int64]models.User
	nextCat    int64
	nextPost   int64
	clock      func() time.Time

	// Err, when set, is returned by every repository call.
	Err error
}

// NewMemory returns a Memory seeded like a fresh database: the unknown
// author (user 1) and the root category "Uncategorized" (category 1).
func NewMemory() *Memory {
	epoch := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	m := &Memory{
		categories: make(map[int64]models.Category),
		posts:      make(map[int64]models.Post),
		users:      make(map[int64]models.User),
		nextCat:    1,
		nextPost:   1,
	}
	tick := epoch
	m.clock = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	m.users[models.UnknownUserID] = models.User{
		ID: models.UnknownUserID, Name: "Unknown author", Email: "unknown@blogcms.local",
		CreatedAt: epoch, UpdatedAt: epoch,
	}
	m.categories[blog.DefaultRootID] = models.Category{
		ID: blog.DefaultRootID, Title: "Uncategorized", Slug: "uncategorized",
		CreatedAt: epoch, UpdatedAt: epoch,
	}
	m.nextCat = blog.DefaultRootID + 1
	return m
}

// AddUser stores u and returns it with an id.
func (m *Memory) AddUser(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = int64(len(m.users) + 1)
	m.users[u.ID] = u
	return u
}

// Categories returns the category repository view.
func (m *Memory) Categories() *Categories { return &Categories{m: m} }

// Posts returns the post repository view.
func (m *Memory) Posts() *Posts { return &Posts{m: m} }

// CategoryCount returns the number of live categories.
func (m *Memory) CategoryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.categories {
		if !c.IsDeleted() {
			n++
		}
	}
	return n
}

// RawPost returns the stored post with the given id, soft-deleted or not.
func (m *Memory) RawPost(id int64) (models.Post, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	return p, ok
}

// RawCategory returns the stored category with the given id, soft-deleted
// or not.
func (m *Memory) RawCategory(id int64) (models.Category, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	return c, ok
}

// loadCategory returns a live category with its parent and post count.
// Callers hold m.mu.
func (m *Memory) loadCategory(id int64) (models.Category, bool) {
	c, ok := m.categories[id]
	if !ok || c.IsDeleted() {
		return models.Category{}, false
	}
	c.Parent = nil
	if c.ParentID != nil {
		if p, ok := m.categories[*c.ParentID]; ok && !p.IsDeleted() {
			c.Parent = &models.Category{ID: p.ID, Title: p.Title, Slug: p.Slug}
		}
	}
	c.PostsCount = 0
	for _, p := range m.posts {
		if p.CategoryID == c.ID && !p.IsDeleted() {
			c.PostsCount++
		}
	}
	return c, true
}

// loadPost returns a live post with its author and category. Callers hold
// m.mu.
func (m *Memory) loadPost(id int64) (models.Post, bool) {
	p, ok := m.posts[id]
	if !ok || p.IsDeleted() {
		return models.Post{}, false
	}
	if u, ok := m.users[p.UserID]; ok {
		p.User = &models.User{ID: u.ID, Name: u.Name}
	}
	if c, ok := m.categories[p.CategoryID]; ok {
		p.Category = &models.Category{ID: c.ID, Title: c.Title, Slug: c.Slug}
	}
	return p, true
}

// page slices ids, already sorted, into one page.
func page(ids []int64, p pagination.Page) []int64 {
	p = p.Normalize()
	from := p.Offset()
	if from >= len(ids) {
		return nil
	}
	to := from + p.Limit()
	if to > len(ids) {
		to = len(ids)
	}
	return ids[from:to]
}

func descending(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
}

// Categories implements service.CategoryRepository over a Memory.
type Categories struct {
	m *Memory
}

func (r *Categories) liveIDs() []int64 {
	var ids []int64
	for id, c := range r.m.categories {
		if !c.IsDeleted() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Paginate returns one page, newest id first.
func (r *Categories) Paginate(_ context.Context, p pagination.Page) ([]models.Category, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, 0, r.m.Err
	}
	ids := r.liveIDs()
	descending(ids)
	out := make([]models.Category, 0, p.Normalize().Limit())
	for _, id := range page(ids, p) {
		c, _ := r.m.loadCategory(id)
		out = append(out, c)
	}
	return out, len(ids), nil
}

// All returns every live category ordered by title.
func (r *Categories) All(_ context.Context) ([]models.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	out := make([]models.Category, 0, len(r.m.categories))
	for _, id := range r.liveIDs() {
		c, _ := r.m.loadCategory(id)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// FlatTree returns categories depth-first with Depth set.
func (r *Categories) FlatTree(ctx context.Context) ([]models.Category, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Category
	placed := make(map[int64]bool, len(all))
	var walk func(parent *int64, depth int)
	walk = func(parent *int64, depth int) {
		for _, c := range all {
			if placed[c.ID] || !sameParent(c.ParentID, parent) {
				continue
			}
			placed[c.ID] = true
			c.Depth = depth
			out = append(out, c)
			id := c.ID
			walk(&id, depth+1)
		}
	}
	walk(nil, 0)
	for _, c := range all {
		if !placed[c.ID] {
			placed[c.ID] = true
			out = append(out, c)
			id := c.ID
			walk(&id, 1)
		}
	}
	return out, nil
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FindByID returns the live category with the given id.
func (r *Categories) FindByID(_ context.Context, id int64) (*models.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	c, ok := r.m.loadCategory(id)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// FindBySlug returns the live category with the given slug.
func (r *Categories) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	for id, c := range r.m.categories {
		if c.Slug == slug && !c.IsDeleted() {
			loaded, _ := r.m.loadCategory(id)
			return &loaded, nil
		}
	}
	return nil, nil
}

// Exists reports whether a live category has the given id.
func (r *Categories) Exists(_ context.Context, id int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return false, r.m.Err
	}
	c, ok := r.m.categories[id]
	return ok && !c.IsDeleted(), nil
}

// SlugExists reports whether a live category other than exceptID owns slug.
func (r *Categories) SlugExists(_ context.Context, slug string, exceptID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return false, r.m.Err
	}
	return r.slugTaken(slug, exceptID), nil
}

func (r *Categories) slugTaken(slug string, exceptID int64) bool {
	for id, c := range r.m.categories {
		if id != exceptID && c.Slug == slug && !c.IsDeleted() {
			return true
		}
	}
	return false
}

// CountChildren counts live categories whose parent is id.
func (r *Categories) CountChildren(_ context.Context, id int64) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return 0, r.m.Err
	}
	n := 0
	for _, c := range r.m.categories {
		if c.ParentID != nil && *c.ParentID == id && !c.IsDeleted() {
			n++
		}
	}
	return n, nil
}

// Create stores c, failing with blog.ErrSlugTaken like the unique index.
func (r *Categories) Create(_ context.Context, c *models.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	if r.slugTaken(c.Slug, 0) {
		return fmt.Errorf("create category: %w", blog.ErrSlugTaken)
	}
	now := r.m.clock()
	c.ID = r.m.nextCat
	r.m.nextCat++
	c.CreatedAt, c.UpdatedAt = now, now
	stored := *c
	stored.Parent, stored.Children = nil, nil
	r.m.categories[c.ID] = stored
	return nil
}

// Update rewrites the editable columns of a live category.
func (r *Categories) Update(_ context.Context, c *models.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	stored, ok := r.m.categories[c.ID]
	if !ok || stored.IsDeleted() {
		return fmt.Errorf("update category %d: %w", c.ID, blog.ErrCategoryNotFound)
	}
	if r.slugTaken(c.Slug, c.ID) {
		return fmt.Errorf("update category: %w", blog.ErrSlugTaken)
	}
	stored.Title, stored.Slug = c.Title, c.Slug
	stored.Description, stored.ParentID = c.Description, c.ParentID
	stored.UpdatedAt = r.m.clock()
	c.UpdatedAt = stored.UpdatedAt
	r.m.categories[c.ID] = stored
	return nil
}

// SoftDelete persists the deletion marker set by c.MarkDeleted.
func (r *Categories) SoftDelete(_ context.Context, c *models.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	if !c.IsDeleted() {
		return fmt.Errorf("soft delete category %d: not marked deleted", c.ID)
	}
	stored, ok := r.m.categories[c.ID]
	if !ok || stored.IsDeleted() {
		return fmt.Errorf("soft delete category %d: %w", c.ID, blog.ErrCategoryNotFound)
	}
	stored.DeletedAt = c.DeletedAt
	r.m.categories[c.ID] = stored
	return nil
}

// Posts implements service.PostRepository over a Memory.
type Posts struct {
	m *Memory
}

func (r *Posts) liveIDs(categoryID *int64) []int64 {
	var ids []int64
	for id, p := range r.m.posts {
		if p.IsDeleted() || (categoryID != nil && p.CategoryID != *categoryID) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Paginate returns one page, newest id first.
func (r *Posts) Paginate(_ context.Context, p pagination.Page, categoryID *int64) ([]models.Post, int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, 0, r.m.Err
	}
	ids := r.liveIDs(categoryID)
	descending(ids)
	out := make([]models.Post, 0, p.Normalize().Limit())
	for _, id := range page(ids, p) {
		post, _ := r.m.loadPost(id)
		out = append(out, post)
	}
	return out, len(ids), nil
}

// FindByID returns the live post with the given id.
func (r *Posts) FindByID(_ context.Context, id int64) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	p, ok := r.m.loadPost(id)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// FindBySlug returns the live post with the given slug.
func (r *Posts) FindBySlug(_ context.Context, slug string) (*models.Post, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	for id, p := range r.m.posts {
		if p.Slug == slug && !p.IsDeleted() {
			loaded, _ := r.m.loadPost(id)
			return &loaded, nil
		}
	}
	return nil, nil
}

// SlugExists reports whether a live post other than exceptID owns slug.
func (r *Posts) SlugExists(_ context.Context, slug string, exceptID int64) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return false, r.m.Err
	}
	return r.slugTaken(slug, exceptID), nil
}

func (r *Posts) slugTaken(slug string, exceptID int64) bool {
	for id, p := range r.m.posts {
		if id != exceptID && p.Slug == slug && !p.IsDeleted() {
			return true
		}
	}
	return false
}

// CountByCategory counts live posts in a category.
func (r *Posts) CountByCategory(_ context.Context, categoryID int64) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return 0, r.m.Err
	}
	return len(r.liveIDs(&categoryID)), nil
}

// Count counts live posts, optionally only published ones.
func (r *Posts) Count(_ context.Context, publishedOnly bool) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return 0, r.m.Err
	}
	n := 0
	for _, p := range r.m.posts {
		if !p.IsDeleted() && (!publishedOnly || p.IsPublished) {
			n++
		}
	}
	return n, nil
}

// Create stores p, failing with blog.ErrSlugTaken like the unique index.
func (r *Posts) Create(_ context.Context, p *models.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	if r.slugTaken(p.Slug, 0) {
		return fmt.Errorf("create post: %w", blog.ErrSlugTaken)
	}
	now := r.m.clock()
	p.ID = r.m.nextPost
	r.m.nextPost++
	p.CreatedAt, p.UpdatedAt = now, now
	stored := *p
	stored.User, stored.Category = nil, nil
	r.m.posts[p.ID] = stored
	return nil
}

// Update rewrites the editable columns of a live post.
func (r *Posts) Update(_ context.Context, p *models.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	stored, ok := r.m.posts[p.ID]
	if !ok || stored.IsDeleted() {
		return fmt.Errorf("update post %d: %w", p.ID, blog.ErrPostNotFound)
	}
	if r.slugTaken(p.Slug, p.ID) {
		return fmt.Errorf("update post: %w", blog.ErrSlugTaken)
	}
	userID, created := stored.UserID, stored.CreatedAt
	stored = *p
	stored.UserID, stored.CreatedAt = userID, created
	stored.User, stored.Category = nil, nil
	stored.UpdatedAt = r.m.clock()
	p.UpdatedAt = stored.UpdatedAt
	r.m.posts[p.ID] = stored
	return nil
}

// SoftDelete persists the deletion marker set by p.MarkDeleted.
func (r *Posts) SoftDelete(_ context.Context, p *models.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	if !p.IsDeleted() {
		return fmt.Errorf("soft delete post %d: not marked deleted", p.ID)
	}
	stored, ok := r.m.posts[p.ID]
	if !ok || stored.IsDeleted() {
		return fmt.Errorf("soft delete post %d: %w", p.ID, blog.ErrPostNotFound)
	}
	stored.DeletedAt = p.DeletedAt
	r.m.posts[p.ID] = stored
	return nil
}
