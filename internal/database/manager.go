package database

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/pkg/model"
)

type DatabaseManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *DatabaseManager {
	m := &DatabaseManager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}

	return m
}

func (mm *DatabaseManager) UserQuery() *UserQuery {
	return NewUserQuery(mm.db)
}

func (mm *DatabaseManager) InvitationQuery() *InvitationQuery {
	return NewInvitationQuery(mm.db)
}

func (mm *DatabaseManager) Migrate() error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.AutoMigrate(
		&model.User{},
		&model.Invitation{},
	)
}

// createOnce inserts s and returns common.ErrConflict when the primary key is taken.
// The existing row is left untouched.
func (mm *DatabaseManager) createOnce(s any) error {
	tx := mm.db.Clauses(clause.OnConflict{DoNothing: true}).Create(s)

	if tx.Error != nil {
		mm.logger.Error("error create object", slog.Any("error", tx.Error))
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return common.ErrConflict
	}

	return nil
}

func (mm *DatabaseManager) GetUser(id string) (*model.User, error) {
	if id == "" {
		return nil, common.ErrNotFound
	}

	u, err := mm.UserQuery().Id(id).One()
	if err != nil {
		return nil, err
	}

	if u == nil {
		return nil, common.ErrNotFound
	}

	return u, nil
}

func (mm *DatabaseManager) CreateUser(u *model.User) error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("%w: empty user id", common.ErrBadRequest)
	}

	if u.GrantedAt.IsZero() {
		u.GrantedAt = time.Now()
	}

	u.GrantedAt = u.GrantedAt.UTC()

	return mm.createOnce(u)
}

func (mm *DatabaseManager) GetInvitation(code string) (*model.Invitation, error) {
	if code == "" {
		return nil, common.ErrNotFound
	}

	i, err := mm.InvitationQuery().Code(code).One()
	if err != nil {
		return nil, err
	}

	if i == nil {
		return nil, common.ErrNotFound
	}

	return i, nil
}

func (mm *DatabaseManager) CreateInvitation(i *model.Invitation) error {
	if i == nil || i.Code == "" || i.IssuedBy == "" {
		return fmt.Errorf("%w: code and issuer are required", common.ErrBadRequest)
	}

	if i.Redeemed {
		return fmt.Errorf("%w: new invitation can't be redeemed", common.ErrBadRequest)
	}

	if i.IssuedAt.IsZero() {
		i.IssuedAt = time.Now()
	}

	i.IssuedAt = i.IssuedAt.UTC()
	i.RedeemedBy = ""
	i.RedeemedAt = nil

	return mm.createOnce(i)
}

// RedeemInvitation flips the redeemed flag with a single conditional update.
// Exactly one caller wins for a given code; the rest get common.ErrConflict.
func (mm *DatabaseManager) RedeemInvitation(code, by string, at time.Time) error {
	if code == "" || by == "" {
		return fmt.Errorf("%w: code and redeemer are required", common.ErrBadRequest)
	}

	err := mm.InvitationQuery().Code(code).Redeemed(false).Update(map[string]any{
		"redeemed":    true,
		"redeemed_by": by,
		"redeemed_at": at.UTC(),
	})

	if err == nil {
		return nil
	}

	if !errors.Is(err, errNoRows) {
		mm.logger.Error("error redeem invitation", slog.String("code", code), slog.Any("error", err))
		return err
	}

	n, err := mm.InvitationQuery().Code(code).Count()
	if err != nil {
		return err
	}

	if n == 0 {
		return common.ErrNotFound
	}

	return common.ErrConflict
}
