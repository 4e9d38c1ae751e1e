package handler

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"go-label-ws/internal/model"
	"go-label-ws/internal/service"
	"go-label-ws/internal/stock"
)

type StockHandler struct {
	stock service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{stock: s}
}

type StatusRequest struct {
	Status model.StockStatus `json:"status"`
	stock.StatusPatch
}

type OptionRequest struct {
	Value string `json:"value"`
}

// List searches the inventory
// GET /api/v1/stock?q=
func (h *StockHandler) List(c *fiber.Ctx) error {
	items, err := h.stock.List(c.UserContext(), c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}

// GET /api/v1/stock/:id
func (h *StockHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "stock item")
	if err != nil {
		return fail(c, err)
	}
	item, err := h.stock.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(item)
}

// Create registers a module
// POST /api/v1/stock
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var req service.AddStockRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	item, err := h.stock.Add(c.UserContext(), req, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Stock item created", "data": item})
}

// UpdateStatus moves a module to another status and logs the custody entry
// POST /api/v1/stock/:id/status
func (h *StockHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "stock item")
	if err != nil {
		return fail(c, err)
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	item, err := h.stock.UpdateStatus(c.UserContext(), id, req.Status, req.StatusPatch, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Status updated", "data": item})
}

// Update edits fields without touching the custody log
// PUT /api/v1/stock/:id
func (h *StockHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "stock item")
	if err != nil {
		return fail(c, err)
	}
	var patch stock.EditPatch
	if err := c.BodyParser(&patch); err != nil {
		return invalidJSON(c)
	}
	item, err := h.stock.Edit(c.UserContext(), id, patch, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock item updated", "data": item})
}

// DELETE /api/v1/stock/:id
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "stock item")
	if err != nil {
		return fail(c, err)
	}
	if err := h.stock.Delete(c.UserContext(), id, caller(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock item deleted"})
}

// GET /api/v1/stock/suggestions
func (h *StockHandler) Suggestions(c *fiber.Ctx) error {
	s, err := h.stock.Suggestions(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}

// GET /api/v1/stock/config
func (h *StockHandler) Config(c *fiber.Ctx) error {
	cfg, err := h.stock.Config(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cfg)
}

// POST /api/v1/stock/config/types
func (h *StockHandler) AddType(c *fiber.Ctx) error {
	return h.addOption(c, h.stock.AddType)
}

// POST /api/v1/stock/config/frequencies
func (h *StockHandler) AddFrequency(c *fiber.Ctx) error {
	return h.addOption(c, h.stock.AddFrequency)
}

type optionAdder func(ctx context.Context, value string, by service.Caller) (*model.StockConfig, error)

// addOption appends to a shared list. Adding a value already present returns
// the unchanged config.
func (h *StockHandler) addOption(c *fiber.Ctx, add optionAdder) error {
	var req OptionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	cfg, err := add(c.UserContext(), req.Value, caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cfg)
}

func pdfName(prefix string, at time.Time) string {
	return fmt.Sprintf(`attachment; filename="%s-%s.pdf"`, prefix, at.Format("20060102-1504"))
}

// Report is the printable inventory
// GET /api/v1/stock/report?q=
func (h *StockHandler) Report(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.stock.InventoryReport(c.UserContext(), c.Query("q"), &buf); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, pdfName("estoque", time.Now()))
	return c.Send(buf.Bytes())
}

// CustodyReport is the printable chain of custody of one module
// GET /api/v1/stock/:id/custody-report
func (h *StockHandler) CustodyReport(c *fiber.Ctx) error {
	id, err := paramID(c, "stock item")
	if err != nil {
		return fail(c, err)
	}
	var buf bytes.Buffer
	if err := h.stock.CustodyReport(c.UserContext(), id, &buf); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, pdfName("custodia", time.Now()))
	return c.Send(buf.Bytes())
}
