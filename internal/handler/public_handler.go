package handler

import (
	"bytes"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/service"
)

// PublicHandler serves what a scanned QR code opens. No authentication.
type PublicHandler struct {
	labels  service.LabelService
	appName string
}

func NewPublicHandler(labels service.LabelService, appName string) *PublicHandler {
	return &PublicHandler{labels: labels, appName: appName}
}

func reference(c *fiber.Ctx) url.Values {
	q := url.Values{}
	for _, k := range []string{"id", "v"} {
		if v := c.Query(k); v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// Verify resolves a shared link to the label it describes
// GET /api/v1/public/labels/verify?id=|v=
func (h *PublicHandler) Verify(c *fiber.Ctx) error {
	resolved, err := h.labels.Resolve(c.UserContext(), reference(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resolved)
}

// Home renders the verified label when the link carries one. Undecodable links
// fall through to the normal landing response.
// GET /
func (h *PublicHandler) Home(c *fiber.Ctx) error {
	q := reference(c)
	if len(q) > 0 {
		resolved, err := h.labels.Resolve(c.UserContext(), q)
		switch {
		case err == nil:
			var buf bytes.Buffer
			if err := resolved.Document().WriteHTML(&buf); err != nil {
				return fail(c, err)
			}
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Send(buf.Bytes())
		case apperror.KindOf(err) == apperror.KindDecoding:
			log.Debug().Err(err).Msg("shared link not decodable, showing landing page")
		default:
			return fail(c, err)
		}
	}
	return c.JSON(fiber.Map{"name": h.appName, "status": "ok"})
}
