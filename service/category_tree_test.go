package service

import (
	"testing"

	"cashflow/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForest() *Forest {
	return NewForest([]models.Category{
		{ID: 1, Name: "市场推广", TransactionTypeID: 2},
		{ID: 2, Name: "Avito", TransactionTypeID: 2, ParentID: uintPtr(1)},
		{ID: 3, Name: "Farpost", TransactionTypeID: 2, ParentID: uintPtr(1)},
		{ID: 4, Name: "工资", TransactionTypeID: 1},
		{ID: 5, Name: "Boosts", TransactionTypeID: 2, ParentID: uintPtr(2)},
		{ID: 6, Name: "Ads", TransactionTypeID: 2},
		{ID: 7, Name: "孤儿", TransactionTypeID: 2, ParentID: uintPtr(99)},
	})
}

func names(list []*models.Category) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Name)
	}
	return out
}

func TestForest_Roots(t *testing.T) {
	f := sampleForest()

	assert.Equal(t, []string{"Ads", "孤儿", "工资", "市场推广"}, names(f.Roots(nil)))
	assert.Equal(t, []string{"工资"}, names(f.Roots(uintPtr(1))))
	assert.Empty(t, f.Roots(uintPtr(3)))
}

func TestForest_ChildrenOrderedByName(t *testing.T) {
	f := sampleForest()
	assert.Equal(t, []string{"Avito", "Farpost"}, names(f.Children(1)))
	assert.Empty(t, f.Children(4))
}

func TestForest_IsLeaf(t *testing.T) {
	f := sampleForest()
	assert.False(t, f.IsLeaf(1))
	assert.False(t, f.IsLeaf(2))
	assert.True(t, f.IsLeaf(3))
	assert.True(t, f.IsLeaf(5))
}

func TestForest_SubtreeAndDescendant(t *testing.T) {
	f := sampleForest()

	assert.Equal(t, []uint{1, 2, 5, 3}, f.SubtreeIDs(1))
	assert.Nil(t, f.SubtreeIDs(42))

	assert.True(t, f.IsDescendant(5, 1))
	assert.True(t, f.IsDescendant(1, 1))
	assert.False(t, f.IsDescendant(1, 5))
	assert.False(t, f.IsDescendant(4, 1))
}

func TestForest_FullProjection(t *testing.T) {
	f := sampleForest()

	node, ok := f.Full(1)
	require.True(t, ok)
	assert.Nil(t, node.Parent)
	assert.Nil(t, node.ParentName)
	require.Len(t, node.Children, 2)
	assert.Equal(t, "Avito", node.Children[0].Name)
	require.NotNil(t, node.Children[0].ParentName)
	assert.Equal(t, "市场推广", *node.Children[0].ParentName)
	require.Len(t, node.Children[0].Children, 1)
	assert.Equal(t, "Boosts", node.Children[0].Children[0].Name)
	assert.NotNil(t, node.Children[1].Children)
	assert.Empty(t, node.Children[1].Children)

	_, ok = f.Full(42)
	assert.False(t, ok)
}

func TestForest_TreeProjection(t *testing.T) {
	f := sampleForest()

	tree := f.TreeList(f.Roots(uintPtr(2)))
	require.Len(t, tree, 3)
	assert.Equal(t, "市场推广", tree[2].Name)
	assert.Equal(t, uint(2), tree[2].Children[0].ID)
	assert.Equal(t, uint(5), tree[2].Children[0].Children[0].ID)
}

func TestForest_Path(t *testing.T) {
	f := sampleForest()
	assert.Equal(t, "市场推广 / Avito / Boosts", f.Path(5))
	assert.Equal(t, "孤儿", f.Path(7))
	assert.Equal(t, "", f.Path(42))
}
