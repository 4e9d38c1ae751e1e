package handler

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"go-label-ws/internal/label"
	"go-label-ws/internal/model"
	"go-label-ws/internal/service"
)

const defaultHistoryLimit = 200

type LabelHandler struct {
	labels service.LabelService
}

func NewLabelHandler(labels service.LabelService) *LabelHandler {
	return &LabelHandler{labels: labels}
}

// List returns the label history, newest first
// GET /api/v1/labels?limit=
func (h *LabelHandler) List(c *fiber.Ctx) error {
	entries, err := h.labels.List(c.UserContext(), c.QueryInt("limit", defaultHistoryLimit))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entries)
}

// Get returns one history entry
// GET /api/v1/labels/:id
func (h *LabelHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "label")
	if err != nil {
		return fail(c, err)
	}
	entry, err := h.labels.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entry)
}

// Save stores a record without printing
// POST /api/v1/labels
func (h *LabelHandler) Save(c *fiber.Ctx) error {
	var rec model.LabelRecord
	if err := c.BodyParser(&rec); err != nil {
		return invalidJSON(c)
	}
	entry, err := h.labels.Save(c.UserContext(), rec, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Label saved", "data": entry})
}

// Delete removes one entry
// DELETE /api/v1/labels/:id
func (h *LabelHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "label")
	if err != nil {
		return fail(c, err)
	}
	if err := h.labels.Delete(c.UserContext(), id, caller(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Label deleted"})
}

// Clear empties the history
// DELETE /api/v1/labels
func (h *LabelHandler) Clear(c *fiber.Ctx) error {
	n, err := h.labels.Clear(c.UserContext(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "History cleared", "deleted": n})
}

// Preview lays out the pair without storing anything
// POST /api/v1/labels/preview
func (h *LabelHandler) Preview(c *fiber.Ctx) error {
	var rec model.LabelRecord
	if err := c.BodyParser(&rec); err != nil {
		return invalidJSON(c)
	}
	r, err := h.labels.Preview(c.UserContext(), rec)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(r)
}

// Print stores the record and returns the print document
// POST /api/v1/labels/print?format=json|pdf|html
func (h *LabelHandler) Print(c *fiber.Ctx) error {
	var rec model.LabelRecord
	if err := c.BodyParser(&rec); err != nil {
		return invalidJSON(c)
	}
	job, err := h.labels.Print(c.UserContext(), rec, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return sendJob(c, job)
}

// Reprint renders a stored entry again
// GET /api/v1/labels/:id/print?format=json|pdf|html
func (h *LabelHandler) Reprint(c *fiber.Ctx) error {
	id, err := paramID(c, "label")
	if err != nil {
		return fail(c, err)
	}
	job, err := h.labels.Reprint(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return sendJob(c, job)
}

func sendJob(c *fiber.Ctx, job *service.PrintJob) error {
	c.Set("X-Label-Persisted", fmt.Sprint(job.Persisted))
	if job.Entry != nil {
		c.Set("X-Label-Id", job.Entry.ID.String())
	}
	return sendDocument(c, job.Document(), c.Query("format", "json"), job)
}

func sendDocument(c *fiber.Ctx, doc label.Document, format string, asJSON any) error {
	var buf bytes.Buffer
	switch format {
	case "pdf":
		if err := doc.WritePDF(&buf); err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="etiqueta.pdf"`)
	case "html":
		if err := doc.WriteHTML(&buf); err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	case "json":
		return c.JSON(asJSON)
	default:
		return c.Status(400).JSON(fiber.Map{"error": "format must be json, pdf or html"})
	}
	return c.Send(buf.Bytes())
}

// GetSettings returns the label media settings
// GET /api/v1/settings/label
func (h *LabelHandler) GetSettings(c *fiber.Ctx) error {
	s, err := h.labels.GetSettings(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}

// UpdateSettings replaces the label media settings
// PUT /api/v1/settings/label
func (h *LabelHandler) UpdateSettings(c *fiber.Ctx) error {
	var s model.LabelSettings
	if err := c.BodyParser(&s); err != nil {
		return invalidJSON(c)
	}
	saved, err := h.labels.UpdateSettings(c.UserContext(), s, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(saved)
}
