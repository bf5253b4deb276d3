// Package usage derives statistics from the authorized-user set and the invitation ledger.
package usage

import (
	"context"

	"github.com/kdudkov/geogate/pkg/model"
)

type Stats struct {
	AuthorizedCount   int `json:"authorized"`
	ActiveCodeCount   int `json:"active_codes"`
	RedeemedCodeCount int `json:"redeemed_codes"`
}

func (s Stats) TotalCodes() int {
	return s.ActiveCodeCount + s.RedeemedCodeCount
}

type Source interface {
	Users(ctx context.Context) ([]*model.User, error)
	Invitations(ctx context.Context) (map[string]*model.Invitation, error)
}

type Aggregator struct {
	src Source
}

func New(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Stats reads the store every time. Both code counts come from the same ledger snapshot.
func (a *Aggregator) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	users, err := a.src.Users(ctx)
	if err != nil {
		return st, err
	}

	invitations, err := a.src.Invitations(ctx)
	if err != nil {
		return st, err
	}

	st.AuthorizedCount = len(users)

	for _, i := range invitations {
		if i.Redeemed {
			st.RedeemedCodeCount++
		} else {
			st.ActiveCodeCount++
		}
	}

	return st, nil
}
