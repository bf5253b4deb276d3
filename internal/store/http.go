package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/pkg/model"
	"github.com/kdudkov/geogate/pkg/request"
)

var _ Store = &HTTPStore{}

// DefaultTimeout bounds a store call when no positive timeout is configured.
const DefaultTimeout = time.Second * 5

// HTTPStore talks to the authstore API. Every call is a single attempt bounded by the
// client timeout.
type HTTPStore struct {
	client *http.Client
	base   string
	login  string
	passw  string
	logger *slog.Logger
}

func NewHTTPStore(base string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &HTTPStore{
		client: &http.Client{Timeout: timeout},
		base:   strings.TrimSuffix(base, "/"),
		logger: slog.With("logger", "store"),
	}
}

func (s *HTTPStore) WithAuth(login, passw string) *HTTPStore {
	s.login = login
	s.passw = passw

	return s
}

func (s *HTTPStore) request(path string) *request.Request {
	r := request.New(s.client, s.logger).URL(s.base + path)

	if s.login != "" {
		r.Auth(s.login, s.passw)
	}

	return r
}

func (s *HTTPStore) Users(ctx context.Context) ([]*model.User, error) {
	var dtos []*model.UserDTO

	if err := s.request("/users").GetJSON(ctx, &dtos); err != nil {
		return nil, s.mapError(err)
	}

	res := make([]*model.User, 0, len(dtos))

	for _, d := range dtos {
		if d != nil {
			res = append(res, d.Model())
		}
	}

	return res, nil
}

func (s *HTTPStore) User(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, common.ErrNotFound
	}

	dto := new(model.UserDTO)

	if err := s.request("/users/" + url.PathEscape(id)).GetJSON(ctx, dto); err != nil {
		return nil, s.mapError(err)
	}

	return dto.Model(), nil
}

func (s *HTTPStore) CreateUser(ctx context.Context, u *model.User) error {
	return s.mapError(s.request("/users").Post().JSON(u.DTO()).Exec(ctx))
}

func (s *HTTPStore) Invitations(ctx context.Context) (map[string]*model.Invitation, error) {
	return s.invitations(ctx, s.request("/invitations"))
}

func (s *HTTPStore) InvitationsIssuedBy(ctx context.Context, issuer string) (map[string]*model.Invitation, error) {
	if issuer == "" {
		return map[string]*model.Invitation{}, nil
	}

	return s.invitations(ctx, s.request("/invitations").Args(map[string]string{"issued_by": issuer}))
}

func (s *HTTPStore) invitations(ctx context.Context, r *request.Request) (map[string]*model.Invitation, error) {
	dtos := make(map[string]*model.InvitationDTO)

	if err := r.GetJSON(ctx, &dtos); err != nil {
		return nil, s.mapError(err)
	}

	res := make(map[string]*model.Invitation, len(dtos))

	for code, d := range dtos {
		if d == nil {
			continue
		}

		i := d.Model()
		i.Code = code
		res[code] = i
	}

	return res, nil
}

func (s *HTTPStore) Invitation(ctx context.Context, code string) (*model.Invitation, error) {
	if code == "" {
		return nil, common.ErrNotFound
	}

	dto := new(model.InvitationDTO)

	if err := s.request("/invitations/" + url.PathEscape(code)).GetJSON(ctx, dto); err != nil {
		return nil, s.mapError(err)
	}

	i := dto.Model()
	i.Code = code

	return i, nil
}

func (s *HTTPStore) CreateInvitation(ctx context.Context, i *model.Invitation) error {
	return s.mapError(s.request("/invitations").Post().JSON(i.DTO()).Exec(ctx))
}

func (s *HTTPStore) RedeemInvitation(ctx context.Context, code, by string, at time.Time) error {
	at = at.UTC()

	dto := &model.InvitationDTO{
		Code:       code,
		Redeemed:   true,
		RedeemedBy: by,
		RedeemedAt: &at,
	}

	return s.mapError(s.request("/invitations").Post().JSON(dto).Exec(ctx))
}

func (s *HTTPStore) mapError(err error) error {
	if err == nil {
		return nil
	}

	var se *request.StatusError

	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusNotFound:
			return common.ErrNotFound
		case http.StatusConflict:
			return common.ErrConflict
		case http.StatusBadRequest:
			return common.ErrBadRequest
		case http.StatusUnauthorized, http.StatusForbidden:
			s.logger.Error("store rejected credentials", slog.String("login", s.login), slog.Int("status", se.Code))
			return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, common.ErrStoreAuth)
		}
	}

	return fmt.Errorf("%w: %s", common.ErrStoreUnavailable, err.Error())
}
