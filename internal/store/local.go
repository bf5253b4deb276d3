package store

import (
	"context"
	"time"

	"github.com/kdudkov/geogate/internal/database"
	"github.com/kdudkov/geogate/pkg/model"
)

var _ Store = &LocalStore{}

// LocalStore runs the store contract directly on the database, for embedded setups and tests.
type LocalStore struct {
	dbm *database.DatabaseManager
}

func NewLocalStore(dbm *database.DatabaseManager) *LocalStore {
	return &LocalStore{dbm: dbm}
}

func (s *LocalStore) Users(ctx context.Context) ([]*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	users, err := s.dbm.UserQuery().Get()

	return users, unavailable(err)
}

func (s *LocalStore) User(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	u, err := s.dbm.GetUser(id)

	return u, unavailable(err)
}

func (s *LocalStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	return unavailable(s.dbm.CreateUser(u))
}

func (s *LocalStore) Invitations(ctx context.Context) (map[string]*model.Invitation, error) {
	return s.invitations(ctx, "")
}

func (s *LocalStore) InvitationsIssuedBy(ctx context.Context, issuer string) (map[string]*model.Invitation, error) {
	if issuer == "" {
		return map[string]*model.Invitation{}, nil
	}

	return s.invitations(ctx, issuer)
}

func (s *LocalStore) invitations(ctx context.Context, issuer string) (map[string]*model.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	list, err := s.dbm.InvitationQuery().Issuer(issuer).Get()
	if err != nil {
		return nil, unavailable(err)
	}

	res := make(map[string]*model.Invitation, len(list))

	for _, i := range list {
		res[i.Code] = i
	}

	return res, nil
}

func (s *LocalStore) Invitation(ctx context.Context, code string) (*model.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	i, err := s.dbm.GetInvitation(code)

	return i, unavailable(err)
}

func (s *LocalStore) CreateInvitation(ctx context.Context, i *model.Invitation) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	return unavailable(s.dbm.CreateInvitation(i))
}

func (s *LocalStore) RedeemInvitation(ctx context.Context, code, by string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	return unavailable(s.dbm.RedeemInvitation(code, by, at))
}
