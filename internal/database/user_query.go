package database

import (
	"gorm.io/gorm"

	"github.com/kdudkov/geogate/pkg/model"
)

type UserQuery struct {
	Query[model.User]
	id string
}

func NewUserQuery(db *gorm.DB) *UserQuery {
	return &UserQuery{
		Query: Query[model.User]{
			db:    db,
			order: "granted_at, id",
		},
	}
}

func (q *UserQuery) Id(id string) *UserQuery {
	q.id = id
	return q
}

func (q *UserQuery) where() *gorm.DB {
	tx := q.db

	if q.id != "" {
		tx = tx.Where("id = ?", q.id)
	}

	return tx
}

func (q *UserQuery) Get() ([]*model.User, error) {
	return q.get(q.where().Model(&model.User{}))
}

func (q *UserQuery) One() (*model.User, error) {
	return q.one(q.where().Model(&model.User{}))
}

func (q *UserQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.User{}))
}
