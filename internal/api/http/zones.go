package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/lawn-manager/internal/export"
	"github.com/i474232898/lawn-manager/internal/lawn"
)

type zoneRateRequest struct {
	Chemical    string `json:"chemical" validate:"required"`
	EquipmentID string `json:"equipmentId" validate:"required"`
}

type mowRequest struct {
	Date string `json:"date"`
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service-level validation runs on zone, equipment and application bodies,
// so handlers only decode them.
func decode(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return badRequest(err)
	}
	return nil
}

func registerZones(v1 fiber.Router, svc *lawn.Service) {
	zones := v1.Group("/zones")

	zones.Post("/", func(c *fiber.Ctx) error {
		var in lawn.ZoneInput
		if err := decode(c, &in); err != nil {
			return err
		}
		z, err := svc.CreateZone(c.UserContext(), in)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(z)
	})

	zones.Get("/", func(c *fiber.Ctx) error {
		list, err := svc.ListZones(c.UserContext())
		if err != nil {
			return statusError(err)
		}
		return c.JSON(list)
	})

	zones.Get("/:id", func(c *fiber.Ctx) error {
		z, err := svc.GetZone(c.UserContext(), c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(z)
	})

	zones.Put("/:id", func(c *fiber.Ctx) error {
		var in lawn.ZoneInput
		if err := decode(c, &in); err != nil {
			return err
		}
		z, err := svc.UpdateZone(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(z)
	})

	zones.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.DeleteZone(c.UserContext(), c.Params("id")); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	zones.Post("/:id/rate", func(c *fiber.Ctx) error {
		var req zoneRateRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		res, err := svc.CalculateForZone(c.UserContext(), c.Params("id"), req.Chemical, req.EquipmentID)
		if err != nil {
			return statusError(err)
		}
		return rateResponse(c, res)
	})

	zones.Get("/:id/rate", func(c *fiber.Ctx) error {
		res, err := svc.LastCalculation(c.UserContext(), c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(res)
	})

	zones.Post("/:id/applications", func(c *fiber.Ctx) error {
		var in lawn.ApplicationInput
		if err := decode(c, &in); err != nil {
			return err
		}
		rec, err := svc.LogApplication(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	})

	zones.Get("/:id/applications", func(c *fiber.Ctx) error {
		recs, err := svc.ListApplications(c.UserContext(), c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		return c.JSON(recs)
	})

	zones.Get("/:id/applications.xlsx", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		z, err := svc.GetZone(ctx, c.Params("id"))
		if err != nil {
			return statusError(err)
		}
		recs, err := svc.ListApplications(ctx, z.ID)
		if err != nil {
			return statusError(err)
		}
		var buf bytes.Buffer
		if err := export.ApplicationsXLSX(&buf, z, recs); err != nil {
			return statusError(err)
		}
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-applications.xlsx"`, z.ID))
		return c.Send(buf.Bytes())
	})

	zones.Post("/:id/mow", func(c *fiber.Ctx) error {
		var req mowRequest
		if len(c.Body()) > 0 {
			if err := decode(c, &req); err != nil {
				return err
			}
		}
		ev, err := svc.LogMow(c.UserContext(), c.Params("id"), req.Date)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(ev)
	})

	zones.Get("/:id/mow", func(c *fiber.Ctx) error {
		asOf, err := queryDate(c)
		if err != nil {
			return badRequest(err)
		}
		st, err := svc.MowStatus(c.UserContext(), c.Params("id"), asOf)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(st)
	})

	zones.Get("/:id/summary", func(c *fiber.Ctx) error {
		asOf, err := queryDate(c)
		if err != nil {
			return badRequest(err)
		}
		sum, err := svc.Summary(c.UserContext(), c.Params("id"), asOf)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(sum)
	})
}

func registerEquipment(v1 fiber.Router, svc *lawn.Service) {
	equipment := v1.Group("/equipment")

	equipment.Post("/", func(c *fiber.Ctx) error {
		var in lawn.EquipmentInput
		if err := decode(c, &in); err != nil {
			return err
		}
		e, err := svc.AddEquipment(c.UserContext(), in)
		if err != nil {
			return statusError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	})

	equipment.Get("/", func(c *fiber.Ctx) error {
		list, err := svc.ListEquipment(c.UserContext())
		if err != nil {
			return statusError(err)
		}
		return c.JSON(list)
	})

	equipment.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.DeleteEquipment(c.UserContext(), c.Params("id")); err != nil {
			return statusError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// queryDate reads an optional ?date=YYYY-MM-DD. Absent means now.
func queryDate(c *fiber.Ctx) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(lawn.DateLayout, raw)
}
