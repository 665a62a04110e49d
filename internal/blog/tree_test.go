package blog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogcms/internal/models"
)

func int64Ptr(v int64) *int64 { return &v }

func TestNewTree_DefaultsRoot(t *testing.T) {
	assert.Equal(t, DefaultRootID, NewTree(0).RootID)
	assert.Equal(t, DefaultRootID, NewTree(-3).RootID)
	assert.Equal(t, int64(42), NewTree(42).RootID)
}

func TestTree_IsRoot(t *testing.T) {
	tree := NewTree(DefaultRootID)

	assert.True(t, tree.IsRoot(&models.Category{ID: 1}))
	assert.False(t, tree.IsRoot(&models.Category{ID: 2}))
	assert.False(t, tree.IsRoot(nil))
	assert.True(t, NewTree(9).IsRoot(&models.Category{ID: 9}))
}

func TestTree_CanReassignParent(t *testing.T) {
	tree := NewTree(DefaultRootID)

	tests := []struct {
		name     string
		id       int64
		parentID *int64
		wantErr  error
	}{
		{name: "self parent denied", id: 5, parentID: int64Ptr(5), wantErr: ErrSelfParent},
		{name: "root self parent denied", id: 1, parentID: int64Ptr(1), wantErr: ErrSelfParent},
		{name: "other parent allowed", id: 5, parentID: int64Ptr(1)},
		{name: "no parent allowed", id: 5, parentID: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tree.CanReassignParent(tt.id, tt.parentID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestTree_CanReassignParent_AllowsDeeperCycles(t *testing.T) {
	// A(2) -> B(3) -> A(2) is not detected; only the direct reference is.
	assert.NoError(t, NewTree(1).CanReassignParent(2, int64Ptr(3)))
}

func TestTree_CanDelete(t *testing.T) {
	tree := NewTree(DefaultRootID)
	root := &models.Category{ID: 1}
	leaf := &models.Category{ID: 8}

	tests := []struct {
		name     string
		category *models.Category
		children int
		posts    int
		wantErr  error
	}{
		{name: "root with nothing", category: root, wantErr: ErrRootDeletion},
		{name: "root with children and posts", category: root, children: 3, posts: 4, wantErr: ErrRootDeletion},
		{name: "has children", category: leaf, children: 1, wantErr: ErrHasChildren},
		{name: "has children and posts", category: leaf, children: 2, posts: 2, wantErr: ErrHasChildren},
		{name: "has posts", category: leaf, posts: 1, wantErr: ErrHasPosts},
		{name: "empty leaf allowed", category: leaf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tree.CanDelete(tt.category, tt.children, tt.posts)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTree_CanDelete_DistinctReasons(t *testing.T) {
	reasons := map[string]bool{}
	for _, err := range []*Error{ErrSelfParent, ErrRootDeletion, ErrHasChildren, ErrHasPosts} {
		assert.NotEmpty(t, err.Message)
		assert.False(t, reasons[err.Code], "duplicate code %q", err.Code)
		reasons[err.Code] = true
	}
}

func TestTree_ParentTitle(t *testing.T) {
	tree := NewTree(DefaultRootID)

	withParent := &models.Category{ID: 4, ParentID: int64Ptr(1), Parent: &models.Category{ID: 1, Title: "Uncategorized"}}
	got := tree.ParentTitle(withParent)
	require.NotNil(t, got)
	assert.Equal(t, "Uncategorized", *got)

	got = tree.ParentTitle(&models.Category{ID: 1})
	require.NotNil(t, got)
	assert.Equal(t, RootLabel, *got)

	assert.Nil(t, tree.ParentTitle(&models.Category{ID: 6}))
	assert.Nil(t, tree.ParentTitle(nil))
}
