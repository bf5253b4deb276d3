package database

import (
	"errors"

	"gorm.io/gorm"
)

var errNoRows = errors.New("no record found")

type Query[T any] struct {
	db    *gorm.DB
	order string
}

func (q *Query[T]) get(tx *gorm.DB) ([]*T, error) {
	var res []*T

	if q.order != "" {
		tx = tx.Order(q.order)
	}

	err := tx.Find(&res).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	return res, err
}

// one returns nil, nil when nothing matches.
func (q *Query[T]) one(tx *gorm.DB) (*T, error) {
	res := new(T)

	err := tx.Take(res).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return res, nil
}

func (q *Query[T]) count(tx *gorm.DB) (int64, error) {
	var n int64

	err := tx.Count(&n).Error

	return n, err
}

func (q *Query[T]) updateOrError(tx *gorm.DB, updates map[string]any) error {
	tx = tx.Updates(updates)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return errNoRows
	}

	return nil
}
