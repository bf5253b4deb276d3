package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kdudkov/geogate/internal/common"
	"github.com/kdudkov/geogate/pkg/model"
)

func getUsersHandler(api *StoreAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		users, err := api.dbm.UserQuery().Get()
		if err != nil {
			return sendError(ctx, err)
		}

		res := make([]*model.UserDTO, 0, len(users))
		for _, u := range users {
			res = append(res, u.DTO())
		}

		return ctx.JSON(res)
	}
}

func getUserHandler(api *StoreAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		u, err := api.dbm.GetUser(param(ctx, "id"))
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(u.DTO())
	}
}

func postUserHandler(api *StoreAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.UserDTO)

		if err := json.Unmarshal(ctx.Body(), dto); err != nil {
			return sendError(ctx, errors.Join(common.ErrBadRequest, err))
		}

		u := dto.Model()

		if err := api.dbm.CreateUser(u); err != nil {
			return sendError(ctx, err)
		}

		api.logger.Info("user authorized", slog.String("id", u.ID), slog.String("client", Username(ctx)))
		api.publish(model.EVENT_ADMITTED, "", u.ID)

		return ctx.Status(fiber.StatusCreated).JSON(u.DTO())
	}
}

// getInvitationsHandler returns the ledger keyed by code, optionally only the codes of one issuer.
func getInvitationsHandler(api *StoreAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		list, err := api.dbm.InvitationQuery().Issuer(ctx.Query("issued_by")).Get()
		if err != nil {
			return sendError(ctx, err)
		}

		res := make(map[string]*model.InvitationDTO, len(list))
		for _, i := range list {
			d := i.DTO()
			d.Code = ""
			res[i.Code] = d
		}

		return ctx.JSON(res)
	}
}

func getInvitationHandler(api *StoreAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		i, err := api.dbm.GetInvitation(param(ctx, "code"))
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(i.DTO())
	}
}

// postInvitationHandler creates an active invitation, or, when the body says redeemed,
// redeems an existing one. Redemption succeeds only for a still active code.
func postInvitationHandler(api *StoreAPI) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		dto := new(model.InvitationDTO)

		if err := json.Unmarshal(ctx.Body(), dto); err != nil {
			return sendError(ctx, errors.Join(common.ErrBadRequest, err))
		}

		if dto.Code == "" {
			return sendError(ctx, errors.Join(common.ErrBadRequest, errors.New("no code")))
		}

		if !dto.Redeemed {
			i := dto.Model()

			if err := api.dbm.CreateInvitation(i); err != nil {
				return sendError(ctx, err)
			}

			api.logger.Info("invitation issued", slog.String("issuer", i.IssuedBy), slog.String("client", Username(ctx)))
			api.publish(model.EVENT_ISSUED, i.Code, i.IssuedBy)

			return ctx.Status(fiber.StatusCreated).JSON(i.DTO())
		}

		at := time.Now()
		if dto.RedeemedAt != nil {
			at = *dto.RedeemedAt
		}

		if err := api.dbm.RedeemInvitation(dto.Code, dto.RedeemedBy, at); err != nil {
			return sendError(ctx, err)
		}

		api.logger.Info("invitation redeemed", slog.String("by", dto.RedeemedBy), slog.String("client", Username(ctx)))
		api.publish(model.EVENT_REDEEMED, dto.Code, dto.RedeemedBy)

		i, err := api.dbm.GetInvitation(dto.Code)
		if err != nil {
			return sendError(ctx, err)
		}

		return ctx.JSON(i.DTO())
	}
}

func sendError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, common.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, common.ErrBadRequest):
		status = fiber.StatusBadRequest
	}

	if status == fiber.StatusInternalServerError {
		slog.Default().With("logger", "api").Error("store error", slog.String("path", ctx.Path()), slog.Any("error", err))
	}

	return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// param returns the unescaped route parameter; ids may contain anything.
func param(ctx *fiber.Ctx, name string) string {
	p := ctx.Params(name)

	if s, err := url.PathUnescape(p); err == nil {
		return s
	}

	return p
}
