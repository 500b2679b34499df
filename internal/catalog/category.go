package catalog

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
)

var ErrCategoryNotFound = errors.New("category not found")

// CategoryService implements category hierarchy CRUD.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(s CategoryStore) *CategoryService {
	return &CategoryService{store: s}
}

func (s *CategoryService) Create(ctx context.Context, c *Category) (*Category, error) {
	if c.Name == "" {
		return nil, errors.New("category name is required")
	}
	c.ID = uuid.New().String()
	c.Active = true
	c.CreatedAt = time.Now()
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, updated *Category) (*Category, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	c.Name = updated.Name
	c.Description = updated.Description
	c.ParentID = updated.ParentID
	c.DisplayOrder = updated.DisplayOrder
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*Category, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]*Category, error) {
	return s.store.List(ctx)
}

// CategoryTree is the hierarchy listing: root categories in display order,
// plus each root's children keyed by parent id.
type CategoryTree struct {
	Categories    []*Category            `json:"categories"`
	Subcategories map[string][]*Category `json:"subcategories"`
}

// Hierarchy returns the active category tree, one level deep. Children of
// inactive or missing parents are omitted.
func (s *CategoryService) Hierarchy(ctx context.Context) (*CategoryTree, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	tree := &CategoryTree{
		Categories:    []*Category{},
		Subcategories: make(map[string][]*Category),
	}
	for _, c := range all {
		if c.ParentID == "" {
			tree.Categories = append(tree.Categories, c)
			tree.Subcategories[c.ID] = []*Category{}
		}
	}
	for _, c := range all {
		if c.ParentID == "" {
			continue
		}
		if _, ok := tree.Subcategories[c.ParentID]; ok {
			tree.Subcategories[c.ParentID] = append(tree.Subcategories[c.ParentID], c)
		}
	}
	return tree, nil
}

// Subcategories returns the active children of one parent, in display order.
func (s *CategoryService) Subcategories(ctx context.Context, parentID string) ([]*Category, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	children := []*Category{}
	for _, c := range all {
		if c.ParentID == parentID {
			children = append(children, c)
		}
	}
	return children, nil
}

// SeedDefaults populates the default category hierarchy on first start.
// It is a no-op when any category already exists.
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("[CategoryService] Initializing product categories...")

	roots := []struct {
		name, description string
		children          []string
	}{
		{"Electronics", "Electronic devices and gadgets", []string{"Smartphones", "Laptops", "Tablets", "Accessories"}},
		{"Clothing", "Fashion and apparel", []string{"Men's Clothing", "Women's Clothing", "Shoes"}},
		{"Home & Garden", "Home improvement and garden supplies", []string{"Furniture", "Kitchen"}},
		{"Books", "Books and media", nil},
		{"Sports", "Sports and outdoor equipment", nil},
	}

	for i, root := range roots {
		parent, err := s.Create(ctx, &Category{
			Name:         root.name,
			Description:  root.description,
			DisplayOrder: i + 1,
		})
		if err != nil {
			return err
		}
		for j, child := range root.children {
			if _, err := s.Create(ctx, &Category{
				Name:         child,
				ParentID:     parent.ID,
				DisplayOrder: j + 1,
			}); err != nil {
				return err
			}
		}
	}

	log.Println("[CategoryService] Default categories created")
	return nil
}
