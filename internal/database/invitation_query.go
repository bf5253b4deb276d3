package database

import (
	"gorm.io/gorm"

	"github.com/kdudkov/geogate/pkg/model"
)

type InvitationQuery struct {
	Query[model.Invitation]
	code     string
	issuer   string
	redeemed *bool
}

func NewInvitationQuery(db *gorm.DB) *InvitationQuery {
	return &InvitationQuery{
		Query: Query[model.Invitation]{
			db:    db,
			order: "issued_at, code",
		},
	}
}

func (q *InvitationQuery) Code(code string) *InvitationQuery {
	q.code = code
	return q
}

func (q *InvitationQuery) Issuer(uid string) *InvitationQuery {
	q.issuer = uid
	return q
}

func (q *InvitationQuery) Redeemed(b bool) *InvitationQuery {
	q.redeemed = &b
	return q
}

func (q *InvitationQuery) where() *gorm.DB {
	tx := q.db

	if q.code != "" {
		tx = tx.Where("code = ?", q.code)
	}

	if q.issuer != "" {
		tx = tx.Where("issued_by = ?", q.issuer)
	}

	if q.redeemed != nil {
		tx = tx.Where("redeemed = ?", *q.redeemed)
	}

	return tx
}

func (q *InvitationQuery) Get() ([]*model.Invitation, error) {
	return q.get(q.where().Model(&model.Invitation{}))
}

func (q *InvitationQuery) One() (*model.Invitation, error) {
	return q.one(q.where().Model(&model.Invitation{}))
}

func (q *InvitationQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Invitation{}))
}

// Update fails with errNoRows when no row matches the filters.
func (q *InvitationQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Invitation{}), updates)
}
