package repository

import (
	"context"
	"fmt"

	"taskDeck/internal/logger"
	"taskDeck/internal/models/task"

	"go.uber.org/zap"
)

type CategoryRepository struct {
	store RecordStore
}

func NewCategoryRepository(store RecordStore) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) List(ctx context.Context) ([]task.Category, error) {
	records, err := r.store.ListCategories(ctx)
	if err != nil {
		logger.Error("Repository: Ошибка получения категорий", err)
		return nil, fmt.Errorf("получение категорий: %w", classify(err))
	}

	categories := make([]task.Category, 0, len(records))
	for _, rec := range records {
		categories = append(categories, task.Category(rec))
	}
	return categories, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c task.Category) (*task.Category, error) {
	rec, err := r.store.CreateCategory(ctx, CategoryRecord{Name: c.Name, Color: c.Color, Icon: c.Icon})
	if err != nil {
		logger.Error("Repository: Ошибка создания категории", err, zap.String("name", c.Name))
		return nil, fmt.Errorf("создание категории: %w", classify(err))
	}
	created := task.Category(rec)
	return &created, nil
}

// ListSubcategories подкатегории одной категории, упорядоченные по имени.
func (r *CategoryRepository) ListSubcategories(ctx context.Context, categoryID int64) ([]task.Subcategory, error) {
	records, err := r.store.ListSubcategories(ctx, categoryID)
	if err != nil {
		logger.Error("Repository: Ошибка получения подкатегорий", err, zap.Int64("category_id", categoryID))
		return nil, fmt.Errorf("получение подкатегорий: %w", classify(err))
	}

	subs := make([]task.Subcategory, 0, len(records))
	for _, rec := range records {
		subs = append(subs, fromSubcategoryRecord(rec))
	}
	return subs, nil
}

func (r *CategoryRepository) CreateSubcategory(ctx context.Context, name string, categoryID int64) (*task.Subcategory, error) {
	rec, err := r.store.CreateSubcategory(ctx, name, categoryID)
	if err != nil {
		logger.Error("Repository: Ошибка создания подкатегории", err,
			zap.String("name", name),
			zap.Int64("category_id", categoryID))
		return nil, fmt.Errorf("создание подкатегории: %w", classify(err))
	}
	sub := fromSubcategoryRecord(rec)
	return &sub, nil
}

func fromSubcategoryRecord(rec SubcategoryRecord) task.Subcategory {
	sub := task.Subcategory{ID: rec.ID, Name: rec.Name}
	if id := ParseRef(rec.CategoryID); id != nil {
		sub.CategoryID = *id
	}
	return sub
}
