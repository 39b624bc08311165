package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrObjectNotFound is returned when an object is not found.
var ErrObjectNotFound = errors.New("object not found")

// ErrValidation is returned (wrapped with a detail message) when input fails
// validation. Match with errors.Is.
var ErrValidation = errors.New("invalid input")

// ObjectFilters narrows a paged listing.
type ObjectFilters struct {
	Search     string
	CategoryID *uint
}

// ObjectInput carries the writable fields for create and update.
type ObjectInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryIDs []uint
}

type ObjectsRepository struct {
	db *gorm.DB
}

func NewObjectsRepository(db *gorm.DB) *ObjectsRepository {
	return &ObjectsRepository{
		db: db,
	}
}

func (r *ObjectsRepository) GetByID(ctx context.Context, id uint) (*Object, error) {
	var object Object
	if err := r.db.WithContext(ctx).
		Preload("Categories").
		First(&object, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, err // Other DB error
	}
	return &object, nil
}

func (r *ObjectsRepository) GetFiltered(ctx context.Context, offset, limit int, filters ObjectFilters) ([]Object, int64, error) {
	var objects []Object
	var total int64

	query := r.db.WithContext(ctx).Model(&Object{}).Preload("Categories")

	// Filter
	if filters.Search != "" {
		query = query.Where("LOWER(objects.name) LIKE ?", "%"+strings.ToLower(filters.Search)+"%")
	}
	if filters.CategoryID != nil {
		query = query.Where("objects.id IN (?)", r.db.Model(&ObjectCategory{}).
			Select("object_id").
			Where("category_id = ?", *filters.CategoryID))
	}

	// Count total after filtering, before pagination
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination; id order keeps pages stable
	if err := query.Order("objects.id ASC").Offset(offset).Limit(limit).Find(&objects).Error; err != nil {
		return nil, 0, err
	}

	return objects, total, nil
}

func (r *ObjectsRepository) Create(ctx context.Context, input ObjectInput) (*Object, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	object := Object{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CreatedDate: time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Create(&object).Error; err != nil {
			return err
		}
		if len(input.CategoryIDs) == 0 {
			return nil
		}
		return replaceCategories(tx, object.ID, input.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, object.ID)
}

func (r *ObjectsRepository) Update(ctx context.Context, id uint, input ObjectInput) (*Object, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Object
		if err := tx.First(&existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrObjectNotFound
			}
			return err
		}

		updates := map[string]any{
			"name":        input.Name,
			"description": input.Description,
			"price":       input.Price,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}

		// An empty id set means "keep the current categories"; only a
		// non-empty set replaces them.
		if len(input.CategoryIDs) > 0 {
			return replaceCategories(tx, id, input.CategoryIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the object and its association rows. Deleting an id that
// does not exist is not an error.
func (r *ObjectsRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("object_id = ?", id).Delete(&ObjectCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Object{}, id).Error
	})
}

func validateInput(input ObjectInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

// replaceCategories rewrites the object's association rows with the ids that
// resolve against existing categories. Unknown ids are dropped and duplicates
// collapse, so at most one link per pair is written.
func replaceCategories(tx *gorm.DB, objectID uint, categoryIDs []uint) error {
	if err := tx.Where("object_id = ?", objectID).Delete(&ObjectCategory{}).Error; err != nil {
		return err
	}

	var existing []uint
	if err := tx.Model(&Category{}).Where("id IN ?", categoryIDs).Pluck("id", &existing).Error; err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	links := make([]ObjectCategory, len(existing))
	for i, categoryID := range existing {
		links[i] = ObjectCategory{ObjectID: objectID, CategoryID: categoryID}
	}
	return tx.Create(&links).Error
}
