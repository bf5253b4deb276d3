package gateapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/pkg/model"
)

var ErrOpenDisabled = errors.New("open admission is disabled")

type JoinRequest struct {
	Code string `json:"code"`
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type IssueRequest struct {
	Issuer string `json:"issuer"`
}

type CheckResponse struct {
	ID         string `json:"id"`
	Authorized bool   `json:"authorized"`
}

type AdmitResponse struct {
	ID     string `json:"id"`
	Result string `json:"result"`
}

func getCheckHandler(api *GateAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id := param(ctx, "id")

		ok, err := api.gate.IsAuthorized(ctx.UserContext(), id)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(CheckResponse{ID: id, Authorized: ok})
	}
}

func postJoinHandler(api *GateAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		req := new(JoinRequest)

		if err := json.Unmarshal(ctx.Body(), req); err != nil {
			return sendError(ctx, errors.Join(common.ErrBadRequest, err))
		}

		res, err := api.gate.AdmitByCode(ctx.UserContext(), req.Code, req.ID, req.Name)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(AdmitResponse{ID: req.ID, Result: res.String()})
	}
}

func postOpenHandler(api *GateAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !api.open {
			return sendError(ctx, ErrOpenDisabled)
		}

		req := new(JoinRequest)

		if err := json.Unmarshal(ctx.Body(), req); err != nil {
			return sendError(ctx, errors.Join(common.ErrBadRequest, err))
		}

		res, err := api.gate.AdmitOpen(ctx.UserContext(), req.ID, req.Name)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(AdmitResponse{ID: req.ID, Result: res.String()})
	}
}

func postIssueHandler(api *GateAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		req := new(IssueRequest)

		if err := json.Unmarshal(ctx.Body(), req); err != nil {
			return sendError(ctx, errors.Join(common.ErrBadRequest, err))
		}

		inv, err := api.ledger.Issue(ctx.UserContext(), req.Issuer)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.Status(fiber.StatusCreated).JSON(inv.DTO())
	}
}

func getInvitationHandler(api *GateAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		inv, err := api.ledger.Lookup(ctx.UserContext(), param(ctx, "code"))
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(inv.DTO())
	}
}

func getIssuedHandler(api *GateAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		list, err := api.ledger.IssuedBy(ctx.UserContext(), param(ctx, "issuer"))
		if err != nil {
			return sendError(ctx, err)
		}

		res := make([]*model.InvitationDTO, 0, len(list))
		for _, i := range list {
			res = append(res, i.DTO())
		}

		return ctx.JSON(res)
	}
}

func getStatsHandler(api *GateAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		st, err := api.usage.Stats(ctx.UserContext())
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(st)
	}
}

func sendError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, common.ErrBadRequest), errors.Is(err, common.ErrEmptyPrincipal):
		status = fiber.StatusBadRequest
	case errors.Is(err, common.ErrInvalidCode), errors.Is(err, common.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, common.ErrRedemptionRace):
		status = fiber.StatusConflict
	case errors.Is(err, common.ErrUnauthorizedIssuer), errors.Is(err, ErrOpenDisabled):
		status = fiber.StatusForbidden
	case errors.Is(err, common.ErrStoreUnavailable):
		status = fiber.StatusServiceUnavailable
	}

	if status >= fiber.StatusInternalServerError {
		slog.Default().With("logger", "gate_api").Error("gate error", slog.String("path", ctx.Path()), slog.Any("error", err))
	}

	return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// param returns the unescaped route parameter.
func param(ctx *fiber.Ctx, name string) string {
	p := ctx.Params(name)

	if s, err := url.PathUnescape(p); err == nil {
		return s
	}

	return p
}
