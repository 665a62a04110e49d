package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcms/internal/blog"
	"blogcms/internal/cache"
	"blogcms/internal/models"
	"blogcms/internal/pagination"
	"blogcms/internal/service"
	"blogcms/internal/service/servicetest"
)

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

type fixture struct {
	mem        *servicetest.Memory
	cache      *servicetest.Cache
	activity   *servicetest.Activity
	categories *service.Categories
	posts      *service.Posts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mem:      servicetest.NewMemory(),
		cache:    &servicetest.Cache{},
		activity: &servicetest.Activity{},
	}
	deps := service.Deps{
		Categories: f.mem.Categories(),
		Posts:      f.mem.Posts(),
		Tree:       blog.NewTree(blog.DefaultRootID),
		Cache:      f.cache,
		Activity:   f.activity,
		Now:        func() time.Time { return fixedNow },
	}
	f.categories = service.NewCategories(deps)
	f.posts = service.NewPosts(deps)
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) category(t *testing.T, title string, parent *int64) *models.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), service.CategoryInput{Title: title, ParentID: parent})
	require.NoError(t, err)
	return c
}

func TestCategoriesCreate_DerivesSlugFromTitle(t *testing.T) {
	f := newFixture(t)

	c, err := f.categories.Create(context.Background(), service.CategoryInput{
		Title:       "  Hello World!  ",
		Description: ptr("   "),
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello World!", c.Title)
	assert.Equal(t, "hello-world", c.Slug)
	assert.Nil(t, c.Description)
	assert.Nil(t, c.ParentID)
	assert.True(t, f.cache.Dropped(cache.CategoriesAll))
	assert.Equal(t, servicetest.Entry{EntityType: models.EntityCategory, EntityID: c.ID, Action: models.ActionCreate}, f.activity.Last())
}

func TestCategoriesCreate_SuffixesCollidingDerivedSlug(t *testing.T) {
	f := newFixture(t)
	f.category(t, "News", nil)
	f.category(t, "News", nil)

	c := f.category(t, "News", nil)

	assert.Equal(t, "news-2", c.Slug)
}

func TestCategoriesCreate_ExplicitSlugTaken(t *testing.T) {
	f := newFixture(t)
	f.category(t, "News", nil)

	_, err := f.categories.Create(context.Background(), service.CategoryInput{Title: "Other", Slug: "news"})

	require.Error(t, err)
	assert.True(t, blog.IsValidation(err))
	var be *blog.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "slug", be.Field)
	assert.Equal(t, "The slug has already been taken.", be.Message)
}

func TestCategoriesCreate_UnderivableSlug(t *testing.T) {
	f := newFixture(t)

	_, err := f.categories.Create(context.Background(), service.CategoryInput{Title: "!!!"})

	var be *blog.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "slug", be.Field)
	assert.True(t, blog.IsValidation(err))
}

func TestCategoriesCreate_UnknownParent(t *testing.T) {
	f := newFixture(t)

	_, err := f.categories.Create(context.Background(), service.CategoryInput{Title: "Orphan", ParentID: ptr[int64](999)})

	var be *blog.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "parent_id", be.Field)
	assert.Equal(t, 1, f.mem.CategoryCount())
}

func TestCategoriesCreate_LoadsParent(t *testing.T) {
	f := newFixture(t)

	c := f.category(t, "Child", ptr(blog.DefaultRootID))

	require.NotNil(t, c.Parent)
	assert.Equal(t, "Uncategorized", c.Parent.Title)
	assert.Equal(t, "Uncategorized", *f.categories.Tree().ParentTitle(c))
}

func TestCategoriesUpdate_SelfParentRejected(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Loop", nil)

	_, err := f.categories.Update(context.Background(), c.ID, service.CategoryInput{Title: "Loop", Slug: "loop", ParentID: &c.ID})

	assert.ErrorIs(t, err, blog.ErrSelfParent)
	stored, _ := f.mem.RawCategory(c.ID)
	assert.Nil(t, stored.ParentID)
}

func TestCategoriesUpdate_KeepsOwnSlug(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Travel", nil)

	got, err := f.categories.Update(context.Background(), c.ID, service.CategoryInput{Title: "Travel", Slug: "travel"})

	require.NoError(t, err)
	assert.Equal(t, "travel", got.Slug)
}

func TestCategoriesUpdate_BlankSlugIgnoresOwnRecord(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Travel", nil)

	got, err := f.categories.Update(context.Background(), c.ID, service.CategoryInput{Title: "Travel"})

	require.NoError(t, err)
	assert.Equal(t, "travel", got.Slug)
}

func TestCategoriesUpdate_RenamesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Travel", nil)

	got, err := f.categories.Update(context.Background(), c.ID, service.CategoryInput{
		Title:       "Journeys",
		Description: ptr("Far away"),
		ParentID:    ptr(blog.DefaultRootID),
	})

	require.NoError(t, err)
	assert.Equal(t, "journeys", got.Slug)
	assert.Equal(t, "Far away", *got.Description)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, blog.DefaultRootID, *got.ParentID)
	assert.True(t, f.cache.Dropped(cache.CategoryKey("travel")))
	assert.True(t, f.cache.Dropped(cache.CategoryKey("journeys")))
	assert.Contains(t, f.cache.Prefixes, cache.PostPrefix)
	assert.Equal(t, models.ActionUpdate, f.activity.Last().Action)
}

func TestCategoriesUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.categories.Update(context.Background(), 404, service.CategoryInput{Title: "Ghost"})

	assert.ErrorIs(t, err, blog.ErrCategoryNotFound)
	assert.True(t, blog.IsNotFound(err))
}

func TestCategoriesDelete(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, f *fixture) int64
		wantErr error
	}{
		{
			name:    "root",
			setup:   func(*testing.T, *fixture) int64 { return blog.DefaultRootID },
			wantErr: blog.ErrRootDeletion,
		},
		{
			name: "with children",
			setup: func(t *testing.T, f *fixture) int64 {
				parent := f.category(t, "Parent", nil)
				f.category(t, "Child", &parent.ID)
				return parent.ID
			},
			wantErr: blog.ErrHasChildren,
		},
		{
			name: "with posts",
			setup: func(t *testing.T, f *fixture) int64 {
				c := f.category(t, "Busy", nil)
				_, err := f.posts.Create(context.Background(), service.PostInput{
					Title: "Post", ContentRaw: "body", CategoryID: c.ID,
				}, models.UnknownUserID)
				require.NoError(t, err)
				return c.ID
			},
			wantErr: blog.ErrHasPosts,
		},
		{
			name:  "leaf",
			setup: func(t *testing.T, f *fixture) int64 { return f.category(t, "Leaf", nil).ID },
		},
		{
			name:    "missing",
			setup:   func(*testing.T, *fixture) int64 { return 999 },
			wantErr: blog.ErrCategoryNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := tt.setup(t, f)

			err := f.categories.Delete(context.Background(), id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			stored, ok := f.mem.RawCategory(id)
			require.True(t, ok)
			require.NotNil(t, stored.DeletedAt)
			assert.True(t, stored.DeletedAt.Equal(fixedNow))
			_, err = f.categories.GetByID(context.Background(), id)
			assert.ErrorIs(t, err, blog.ErrCategoryNotFound)
			assert.Equal(t, models.ActionDelete, f.activity.Last().Action)
		})
	}
}

func TestCategoriesDelete_FreesSlugForReuse(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Seasonal", nil)
	require.NoError(t, f.categories.Delete(context.Background(), c.ID))

	again := f.category(t, "Seasonal", nil)

	assert.Equal(t, "seasonal", again.Slug)
}

func TestCategoriesList_NewestFirst(t *testing.T) {
	f := newFixture(t)
	f.category(t, "First", nil)
	last := f.category(t, "Second", nil)

	items, total, err := f.categories.List(context.Background(), pagination.Page{Number: 1, PerPage: 2})

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, last.ID, items[0].ID)
}

func TestCategoriesParentOptions_ExcludesSelf(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Self", ptr(blog.DefaultRootID))

	opts, err := f.categories.ParentOptions(context.Background(), c.ID)

	require.NoError(t, err)
	for _, o := range opts {
		assert.NotEqual(t, c.ID, o.ID)
	}
	assert.Len(t, opts, 1)
}

func TestCategoriesPosts(t *testing.T) {
	f := newFixture(t)
	c := f.category(t, "Tech", nil)
	_, err := f.posts.Create(context.Background(), service.PostInput{Title: "In tech", ContentRaw: "x", CategoryID: c.ID}, models.UnknownUserID)
	require.NoError(t, err)
	_, err = f.posts.Create(context.Background(), service.PostInput{Title: "Elsewhere", ContentRaw: "x", CategoryID: blog.DefaultRootID}, models.UnknownUserID)
	require.NoError(t, err)

	got, posts, total, err := f.categories.Posts(context.Background(), "tech", pagination.Page{})

	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "in-tech", posts[0].Slug)

	_, _, _, err = f.categories.Posts(context.Background(), "nope", pagination.Page{})
	assert.ErrorIs(t, err, blog.ErrCategoryNotFound)
}

func TestCategories_RepositoryErrorPropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection reset")
	f.mem.Err = boom

	_, err := f.categories.Get(context.Background(), "any")
	assert.ErrorIs(t, err, boom)

	_, err = f.categories.Create(context.Background(), service.CategoryInput{Title: "x", ParentID: ptr(blog.DefaultRootID)})
	assert.ErrorIs(t, err, boom)
	assert.False(t, blog.IsValidation(err))
}
