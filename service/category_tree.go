package service

import (
	"sort"
	"time"

	"cashflow/models"
)

// CategoryNode 分类完整结构（递归包含子分类）
type CategoryNode struct {
	ID                  uint           `json:"id"`
	Name                string         `json:"name"`
	Description         string         `json:"description"`
	TransactionType     uint           `json:"transaction_type"`
	TransactionTypeName string         `json:"transaction_type_name"`
	Parent              *uint          `json:"parent"`
	ParentName          *string        `json:"parent_name"`
	Children            []CategoryNode `json:"children"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// CategoryTreeNode 精简树结构，供层级选择器使用
type CategoryTreeNode struct {
	ID       uint               `json:"id"`
	Name     string             `json:"name"`
	Children []CategoryTreeNode `json:"children"`
}

// Forest 一次性加载的分类集合，按 parent_id 建立子节点索引
type Forest struct {
	byID     map[uint]*models.Category
	children map[uint][]*models.Category
	roots    []*models.Category
}

// NewForest 由平铺的分类列表构建森林；同级节点按名称排序，名称相同时按 id 排序。
// 父节点不在列表中的分类当作根处理。
func NewForest(cats []models.Category) *Forest {
	f := &Forest{
		byID:     make(map[uint]*models.Category, len(cats)),
		children: make(map[uint][]*models.Category),
	}
	for i := range cats {
		f.byID[cats[i].ID] = &cats[i]
	}
	for i := range cats {
		c := &cats[i]
		if c.ParentID != nil {
			if _, ok := f.byID[*c.ParentID]; ok {
				f.children[*c.ParentID] = append(f.children[*c.ParentID], c)
				continue
			}
		}
		f.roots = append(f.roots, c)
	}
	sortByName(f.roots)
	for _, list := range f.children {
		sortByName(list)
	}
	return f
}

func sortByName(list []*models.Category) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

// Get 按 id 查找
func (f *Forest) Get(id uint) (*models.Category, bool) {
	c, ok := f.byID[id]
	return c, ok
}

// Children 直接子分类（不递归），按名称排序
func (f *Forest) Children(id uint) []*models.Category {
	return f.children[id]
}

// IsLeaf 没有子分类即为叶子
func (f *Forest) IsLeaf(id uint) bool {
	return len(f.children[id]) == 0
}

// Roots 根分类；typeID 非空时只返回该流水类型的根
func (f *Forest) Roots(typeID *uint) []*models.Category {
	if typeID == nil {
		return f.roots
	}
	var out []*models.Category
	for _, c := range f.roots {
		if c.TransactionTypeID == *typeID {
			out = append(out, c)
		}
	}
	return out
}

// SubtreeIDs 返回 id 及其全部后代（先序）
func (f *Forest) SubtreeIDs(id uint) []uint {
	if _, ok := f.byID[id]; !ok {
		return nil
	}
	ids := []uint{id}
	for _, child := range f.children[id] {
		ids = append(ids, f.SubtreeIDs(child.ID)...)
	}
	return ids
}

// IsDescendant 判断 node 是否位于 ancestor 的子树中（含自身）
func (f *Forest) IsDescendant(node, ancestor uint) bool {
	seen := make(map[uint]bool)
	for cur, ok := f.byID[node]; ok; {
		if cur.ID == ancestor {
			return true
		}
		if seen[cur.ID] || cur.ParentID == nil {
			return false
		}
		seen[cur.ID] = true
		cur, ok = f.byID[*cur.ParentID]
	}
	return false
}

// Full 完整投影，递归到叶子
func (f *Forest) Full(id uint) (CategoryNode, bool) {
	c, ok := f.byID[id]
	if !ok {
		return CategoryNode{}, false
	}
	return f.full(c), true
}

func (f *Forest) full(c *models.Category) CategoryNode {
	node := CategoryNode{
		ID:                  c.ID,
		Name:                c.Name,
		Description:         c.Description,
		TransactionType:     c.TransactionTypeID,
		TransactionTypeName: c.TransactionType.Name,
		Parent:              c.ParentID,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
		Children:            []CategoryNode{},
	}
	if c.ParentID != nil {
		if p, ok := f.byID[*c.ParentID]; ok {
			name := p.Name
			node.ParentName = &name
		}
	}
	for _, child := range f.children[c.ID] {
		node.Children = append(node.Children, f.full(child))
	}
	return node
}

// Tree 精简投影，递归到叶子
func (f *Forest) Tree(id uint) (CategoryTreeNode, bool) {
	c, ok := f.byID[id]
	if !ok {
		return CategoryTreeNode{}, false
	}
	return f.tree(c), true
}

func (f *Forest) tree(c *models.Category) CategoryTreeNode {
	node := CategoryTreeNode{ID: c.ID, Name: c.Name, Children: []CategoryTreeNode{}}
	for _, child := range f.children[c.ID] {
		node.Children = append(node.Children, f.tree(child))
	}
	return node
}

// FullList 对给定分类逐个做完整投影
func (f *Forest) FullList(list []*models.Category) []CategoryNode {
	out := make([]CategoryNode, 0, len(list))
	for _, c := range list {
		out = append(out, f.full(c))
	}
	return out
}

// TreeList 对给定分类逐个做精简投影
func (f *Forest) TreeList(list []*models.Category) []CategoryTreeNode {
	out := make([]CategoryTreeNode, 0, len(list))
	for _, c := range list {
		out = append(out, f.tree(c))
	}
	return out
}

// All 全部分类，按名称排序
func (f *Forest) All() []*models.Category {
	out := make([]*models.Category, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	sortByName(out)
	return out
}

// Path 从根到该节点的名称路径，如 "基础设施 / VPS"
func (f *Forest) Path(id uint) string {
	c, ok := f.byID[id]
	if !ok {
		return ""
	}
	if c.ParentID == nil {
		return c.Name
	}
	if _, ok := f.byID[*c.ParentID]; !ok {
		return c.Name
	}
	return f.Path(*c.ParentID) + " / " + c.Name
}
