package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/JAFletch-surg/dukes-club/internal/apperrors"
	"github.com/JAFletch-surg/dukes-club/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Query narrows and orders a List call. Filter keys are JSON field names of
// the collection's row type.
type Query struct {
	OrderBy   string
	Ascending bool
	Eq        map[string]any
	In        map[string][]string
	Gte       map[string]any
	Limit     int
}

// CollectionRepository is the store-side contract for one named collection.
type CollectionRepository[T models.Row] interface {
	Name() string
	List(ctx context.Context, q Query) ([]T, error)
	Get(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, row *T) error
	Update(ctx context.Context, id string, patch models.Payload) (*T, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, eq map[string]any) (int64, error)
}

type collectionRepository[T models.Row] struct {
	db   *gorm.DB
	name string
}

// NewCollectionRepository binds a repository to the table of row type T.
func NewCollectionRepository[T models.Row](db *gorm.DB) CollectionRepository[T] {
	var zero T
	return &collectionRepository[T]{db: db, name: zero.TableName()}
}

func (r *collectionRepository[T]) Name() string {
	return r.name
}

func (r *collectionRepository[T]) List(ctx context.Context, q Query) ([]T, error) {
	tx, err := r.scope(r.db.WithContext(ctx), q)
	if err != nil {
		return nil, apperrors.NewStoreError("list", r.name, err)
	}
	if q.OrderBy != "" {
		if !models.Fields[T]()[q.OrderBy] {
			return nil, apperrors.NewStoreError("list", r.name, fmt.Errorf("%w: %s", models.ErrUnknownField, q.OrderBy))
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: !q.Ascending})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	rows := make([]T, 0)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, apperrors.NewStoreError("list", r.name, fmt.Errorf("failed to list %s: %w", r.name, err))
	}
	return rows, nil
}

func (r *collectionRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	var row T
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewStoreError("get", r.name, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("get", r.name, fmt.Errorf("failed to find %s %s: %w", r.name, id, err))
	}
	return &row, nil
}

// Insert applies defaults and validation, then writes row. The store assigns
// the ID and created_at, which are visible on row afterwards.
func (r *collectionRepository[T]) Insert(ctx context.Context, row *T) error {
	if err := models.Prepare(row); err != nil {
		return apperrors.NewStoreError("insert", r.name, err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return apperrors.NewStoreError("insert", r.name, fmt.Errorf("failed to create %s: %w", r.name, err))
	}
	return nil
}

// Update overlays patch onto the stored row and writes every column back.
// A patch that matches no row fails with ErrNotFound.
func (r *collectionRepository[T]) Update(ctx context.Context, id string, patch models.Payload) (*T, error) {
	if err := models.CheckPayload[T](patch); err != nil {
		return nil, apperrors.NewStoreError("update", r.name, err)
	}

	var cur T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to find %s %s: %w", r.name, id, err)
		}
		if err := models.Overlay(&cur, patch); err != nil {
			return err
		}
		if err := models.Prepare(&cur); err != nil {
			return err
		}
		res := tx.Model(&cur).Select("*").Omit("id", "created_at").Updates(&cur)
		if res.Error != nil {
			return fmt.Errorf("failed to update %s %s: %w", r.name, id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStoreError("update", r.name, err)
	}
	return &cur, nil
}

// Delete loads the row before removing it so the model's delete hooks see
// its id and run in the same transaction.
func (r *collectionRepository[T]) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row T
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to find %s %s: %w", r.name, id, err)
		}
		if err := tx.Delete(&row).Error; err != nil {
			return fmt.Errorf("failed to delete %s %s: %w", r.name, id, err)
		}
		return nil
	})
	return apperrors.NewStoreError("delete", r.name, err)
}

func (r *collectionRepository[T]) Count(ctx context.Context, eq map[string]any) (int64, error) {
	var zero T
	tx, err := r.scope(r.db.WithContext(ctx).Model(&zero), Query{Eq: eq})
	if err != nil {
		return 0, apperrors.NewStoreError("count", r.name, err)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, apperrors.NewStoreError("count", r.name, fmt.Errorf("failed to count %s: %w", r.name, err))
	}
	return n, nil
}

// scope applies the query's filters after checking their keys.
func (r *collectionRepository[T]) scope(tx *gorm.DB, q Query) (*gorm.DB, error) {
	fields := models.Fields[T]()
	var exprs []clause.Expression
	for k, v := range q.Eq {
		if !fields[k] {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownField, k)
		}
		exprs = append(exprs, clause.Eq{Column: clause.Column{Name: k}, Value: v})
	}
	for k, v := range q.Gte {
		if !fields[k] {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownField, k)
		}
		exprs = append(exprs, clause.Gte{Column: clause.Column{Name: k}, Value: v})
	}
	for k, vs := range q.In {
		if !fields[k] {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownField, k)
		}
		values := make([]any, len(vs))
		for i, v := range vs {
			values[i] = v
		}
		exprs = append(exprs, clause.IN{Column: clause.Column{Name: k}, Values: values})
	}
	if len(exprs) == 0 {
		return tx, nil
	}
	return tx.Clauses(clause.Where{Exprs: exprs}), nil
}
