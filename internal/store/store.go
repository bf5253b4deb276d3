// Package store gives the core access to the authorization store: the authorized-user set
// and the invitation ledger. Every failure to reach the store is reported as
// common.ErrStoreUnavailable; common.ErrNotFound and common.ErrConflict are answers.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/pkg/model"
)

type Store interface {
	Users(ctx context.Context) ([]*model.User, error)
	User(ctx context.Context, id string) (*model.User, error)
	// CreateUser fails with common.ErrConflict if the id is already authorized.
	CreateUser(ctx context.Context, u *model.User) error

	Invitations(ctx context.Context) (map[string]*model.Invitation, error)
	// InvitationsIssuedBy is the part of the ledger issued by one principal.
	InvitationsIssuedBy(ctx context.Context, issuer string) (map[string]*model.Invitation, error)
	Invitation(ctx context.Context, code string) (*model.Invitation, error)
	// CreateInvitation fails with common.ErrConflict if the code exists.
	CreateInvitation(ctx context.Context, i *model.Invitation) error
	// RedeemInvitation is a compare-and-swap on the redeemed flag: common.ErrConflict if
	// the code is already redeemed, common.ErrNotFound if there is no such code.
	RedeemInvitation(ctx context.Context, code, by string, at time.Time) error
}

func unavailable(err error) error {
	if err == nil {
		return nil
	}

	for _, e := range []error{common.ErrNotFound, common.ErrConflict, common.ErrBadRequest, common.ErrStoreUnavailable} {
		if errors.Is(err, e) {
			return err
		}
	}

	return fmt.Errorf("%w: %s", common.ErrStoreUnavailable, err.Error())
}
