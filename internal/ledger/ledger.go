// Package ledger manages the lifecycle of invitation codes: issue, lookup and single-use
// redemption.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/internal/store"
	"github.com/kdudkov/geogate/pkg/model"
)

// maxCollisionRetries is how many fresh codes Issue tries after the first one collides.
const maxCollisionRetries = 3

type Manager struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
	codes  func() (string, error)
}

func New(s store.Store) *Manager {
	return &Manager{
		store:  s,
		logger: slog.Default().With("logger", "ledger"),
		now:    time.Now,
		codes:  NewCode,
	}
}

// Issue creates a new active invitation on behalf of an authorized issuer.
func (m *Manager) Issue(ctx context.Context, issuerID string) (*model.Invitation, error) {
	if issuerID == "" {
		return nil, common.ErrUnauthorizedIssuer
	}

	if _, err := m.store.User(ctx, issuerID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorizedIssuer
		}

		return nil, err
	}

	for attempt := 0; attempt <= maxCollisionRetries; attempt++ {
		code, err := m.codes()
		if err != nil {
			return nil, fmt.Errorf("code generation: %w", err)
		}

		inv := &model.Invitation{
			Code:     code,
			IssuedBy: issuerID,
			IssuedAt: m.now().UTC(),
		}

		err = m.store.CreateInvitation(ctx, inv)
		if err == nil {
			m.logger.Info("invitation issued", slog.String("issuer", issuerID))
			return inv, nil
		}

		if !errors.Is(err, common.ErrConflict) {
			return nil, err
		}

		m.logger.Warn("invitation code collision", slog.Int("attempt", attempt+1))
	}

	return nil, fmt.Errorf("%w: no free code after %d attempts", common.ErrConflict, maxCollisionRetries+1)
}

func (m *Manager) Lookup(ctx context.Context, code string) (*model.Invitation, error) {
	if code == "" {
		return nil, common.ErrNotFound
	}

	return m.store.Invitation(ctx, code)
}

// IssuedBy lists the invitations of one issuer, oldest first.
func (m *Manager) IssuedBy(ctx context.Context, issuerID string) ([]*model.Invitation, error) {
	if issuerID == "" {
		return nil, common.ErrUnauthorizedIssuer
	}

	invs, err := m.store.InvitationsIssuedBy(ctx, issuerID)
	if err != nil {
		return nil, err
	}

	res := make([]*model.Invitation, 0, len(invs))
	for _, i := range invs {
		res = append(res, i)
	}

	slices.SortFunc(res, func(a, b *model.Invitation) int {
		if c := a.IssuedAt.Compare(b.IssuedAt); c != 0 {
			return c
		}

		return strings.Compare(a.Code, b.Code)
	})

	return res, nil
}

// Redeem marks the code as used by redeemerID. Of concurrent calls for one code exactly one
// returns nil, the rest get common.ErrAlreadyRedeemed.
func (m *Manager) Redeem(ctx context.Context, code, redeemerID string) error {
	if redeemerID == "" {
		return common.ErrEmptyPrincipal
	}

	if code == "" {
		return common.ErrNotFound
	}

	err := m.store.RedeemInvitation(ctx, code, redeemerID, m.now().UTC())

	switch {
	case err == nil:
		m.logger.Info("invitation redeemed", slog.String("by", redeemerID))
		return nil
	case errors.Is(err, common.ErrConflict):
		return common.ErrAlreadyRedeemed
	default:
		return err
	}
}
