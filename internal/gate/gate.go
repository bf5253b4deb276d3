// Package gate decides who may use the bot and admits new principals that present a valid
// invitation code.
package gate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kdudkov/geogate/internal/cache"
	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/pkg/model"
)

var admissionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "geogate",
	Name:      "admissions_total",
	Help:      "Admission attempts by mode and result",
}, []string{"mode", "result"})

type Result int

const (
	Admitted Result = iota + 1
	AlreadyAuthorized
)

func (r Result) String() string {
	switch r {
	case Admitted:
		return "admitted"
	case AlreadyAuthorized:
		return "already_authorized"
	default:
		return "unknown"
	}
}

// Users is the part of the store the gate needs.
type Users interface {
	User(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
}

type Ledger interface {
	Lookup(ctx context.Context, code string) (*model.Invitation, error)
	Redeem(ctx context.Context, code, redeemerID string) error
}

type Option func(g *Gate)

// WithCache remembers positive membership answers for ttl. Zero ttl disables it.
func WithCache(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.cache = cache.NewWithTTL[bool](ttl)
		}
	}
}

type Gate struct {
	users  Users
	ledger Ledger
	cache  *cache.Cache[bool]
	locks  *keyLocks
	logger *slog.Logger
	now    func() time.Time
}

func New(users Users, ledger Ledger, opts ...Option) *Gate {
	g := &Gate{
		users:  users,
		ledger: ledger,
		locks:  newKeyLocks(),
		logger: slog.Default().With("logger", "gate"),
		now:    time.Now,
	}

	for _, o := range opts {
		o(g)
	}

	return g
}

func (g *Gate) IsAuthorized(ctx context.Context, principalID string) (bool, error) {
	if principalID == "" {
		return false, common.ErrEmptyPrincipal
	}

	if g.cache != nil {
		if _, ok := g.cache.Get(principalID); ok {
			return true, nil
		}
	}

	_, err := g.users.User(ctx, principalID)

	switch {
	case err == nil:
		g.remember(principalID)
		return true, nil
	case errors.Is(err, common.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// AdmitByCode exchanges an active invitation code for permanent authorization.
// An already authorized principal gets AlreadyAuthorized and no code is consumed.
// Admissions of one principal are serialized, so concurrent joins with different codes
// spend at most one of them.
func (g *Gate) AdmitByCode(ctx context.Context, code, principalID, displayName string) (Result, error) {
	if principalID == "" {
		count("code", 0, common.ErrEmptyPrincipal)
		return 0, common.ErrEmptyPrincipal
	}

	unlock := g.locks.lock(principalID)
	res, err := g.admitByCode(ctx, code, principalID, displayName)
	unlock()

	count("code", res, err)

	return res, err
}

func (g *Gate) admitByCode(ctx context.Context, code, principalID, displayName string) (Result, error) {
	logger := g.logger.With(slog.String("principal", principalID))

	ok, err := g.IsAuthorized(ctx, principalID)
	if err != nil {
		return 0, err
	}

	if ok {
		return AlreadyAuthorized, nil
	}

	inv, err := g.ledger.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, common.ErrInvalidCode
		}

		return 0, err
	}

	if !inv.IsActive() {
		return 0, common.ErrInvalidCode
	}

	if err := g.ledger.Redeem(ctx, code, principalID); err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyRedeemed):
			logger.Info("lost redemption race")
			return 0, common.ErrRedemptionRace
		case errors.Is(err, common.ErrNotFound):
			return 0, common.ErrInvalidCode
		default:
			return 0, err
		}
	}

	// the code is spent now, the caller going away must not stop the admission
	created, err := g.admit(context.WithoutCancel(ctx), principalID, displayName)
	if err != nil {
		logger.Error("code redeemed but principal is not admitted", slog.String("code", code), slog.Any("error", err))
		return 0, err
	}

	if !created {
		logger.Warn("code redeemed by a principal admitted elsewhere", slog.String("code", code))
		return AlreadyAuthorized, nil
	}

	logger.Info("admitted by invitation", slog.String("issuer", inv.IssuedBy))

	return Admitted, nil
}

// AdmitOpen authorizes the principal without a code.
func (g *Gate) AdmitOpen(ctx context.Context, principalID, displayName string) (Result, error) {
	if principalID == "" {
		count("open", 0, common.ErrEmptyPrincipal)
		return 0, common.ErrEmptyPrincipal
	}

	unlock := g.locks.lock(principalID)
	res, err := g.admitOpen(ctx, principalID, displayName)
	unlock()

	count("open", res, err)

	return res, err
}

func (g *Gate) admitOpen(ctx context.Context, principalID, displayName string) (Result, error) {
	ok, err := g.IsAuthorized(ctx, principalID)
	if err != nil {
		return 0, err
	}

	if ok {
		return AlreadyAuthorized, nil
	}

	err = g.users.CreateUser(ctx, &model.User{ID: principalID, DisplayName: displayName, GrantedAt: g.now().UTC()})

	switch {
	case err == nil:
		g.remember(principalID)
		g.logger.Info("admitted", slog.String("principal", principalID))

		return Admitted, nil
	case errors.Is(err, common.ErrConflict):
		g.remember(principalID)
		return AlreadyAuthorized, nil
	default:
		return 0, err
	}
}

// admit creates the authorization record. created is false when another gate admitted the
// principal meanwhile.
func (g *Gate) admit(ctx context.Context, principalID, displayName string) (created bool, err error) {
	err = g.users.CreateUser(ctx, &model.User{ID: principalID, DisplayName: displayName, GrantedAt: g.now().UTC()})

	switch {
	case err == nil:
		created = true
	case errors.Is(err, common.ErrConflict):
	default:
		return false, err
	}

	g.remember(principalID)

	return created, nil
}

// Run drops expired membership answers until ctx is done. Only needed for a long-lived gate.
func (g *Gate) Run(ctx context.Context) {
	if g.cache == nil {
		return
	}

	ticker := time.NewTicker(g.cache.TTL())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.cache.Clean()
		}
	}
}

// CacheSize is the number of remembered principals, expired ones included until the next clean.
func (g *Gate) CacheSize() int {
	if g.cache == nil {
		return 0
	}

	return g.cache.Len()
}

func (g *Gate) remember(principalID string) {
	if g.cache != nil {
		g.cache.Put(principalID, true)
	}
}

func count(mode string, res Result, err error) {
	result := res.String()

	switch {
	case err == nil:
	case errors.Is(err, common.ErrInvalidCode):
		result = "invalid_code"
	case errors.Is(err, common.ErrRedemptionRace):
		result = "race"
	default:
		result = "error"
	}

	admissionsMetric.With(prometheus.Labels{"mode": mode, "result": result}).Inc()
}
