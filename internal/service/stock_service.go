package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/events"
	"go-label-ws/internal/model"
	"go-label-ws/internal/report"
	"go-label-ws/internal/repository"
	"go-label-ws/internal/stock"
	"go-label-ws/internal/ws"
	"go-label-ws/pkg/validator"
)

var (
	ErrStockItemNotFound = apperror.NotFound("stock item not found")
	ErrDuplicateSerial   = apperror.Validation("serial already registered")
	ErrEmptyOption       = apperror.Validation("option cannot be empty")
)

// AddStockRequest registers a module. Status dependent fields follow the same
// rules as a transition into Status.
type AddStockRequest struct {
	Descricao  string            `json:"descricao" validate:"required"`
	Tipo       string            `json:"tipo"`
	Frequencia string            `json:"frequencia"`
	Aplicacao  string            `json:"aplicacao"`
	Serial     string            `json:"serial" validate:"required"`
	Quantidade int               `json:"quantidade" validate:"gte=0"`
	Status     model.StockStatus `json:"status" validate:"required,stock_status"`
	stock.StatusPatch
}

type StockService interface {
	List(ctx context.Context, query string) ([]model.StockItem, error)
	Get(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	Add(ctx context.Context, req AddStockRequest, by Caller) (*model.StockItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next model.StockStatus, patch stock.StatusPatch, by Caller) (*model.StockItem, error)
	Edit(ctx context.Context, id uuid.UUID, patch stock.EditPatch, by Caller) (*model.StockItem, error)
	Delete(ctx context.Context, id uuid.UUID, by Caller) error
	Suggestions(ctx context.Context) (stock.Suggestions, error)
	Config(ctx context.Context) (*model.StockConfig, error)
	AddType(ctx context.Context, value string, by Caller) (*model.StockConfig, error)
	AddFrequency(ctx context.Context, value string, by Caller) (*model.StockConfig, error)
	InventoryReport(ctx context.Context, query string, w io.Writer) error
	CustodyReport(ctx context.Context, id uuid.UUID, w io.Writer) error
}

type stockService struct {
	items     repository.StockRepository
	config    repository.StockConfigRepository
	wsHub     *ws.Hub
	publisher events.Publisher
	now       func() time.Time
}

func NewStockService(items repository.StockRepository, config repository.StockConfigRepository, hub *ws.Hub, publisher events.Publisher) StockService {
	return &stockService{
		items:     items,
		config:    config,
		wsHub:     hub,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *stockService) broadcast(action string, item *model.StockItem, by Caller, msg string) {
	s.wsHub.Publish(ws.Event{Type: ws.TopicStock, Action: action, Data: item, User: by.wsUser(), Message: msg})
}

func (s *stockService) List(ctx context.Context, query string) ([]model.StockItem, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, storeErr("list stock", err, nil)
	}
	return stock.Filter(items, query), nil
}

func (s *stockService) Get(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get stock item", err, ErrStockItemNotFound)
	}
	return item, nil
}

func (s *stockService) serialTaken(ctx context.Context, serial string, except uuid.UUID) (bool, error) {
	existing, err := s.items.FindBySerial(ctx, serial)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check serial", err, nil)
	}
	return existing.ID != except, nil
}

func (s *stockService) Add(ctx context.Context, req AddStockRequest, by Caller) (*model.StockItem, error) {
	req.Descricao = strings.ToUpper(strings.TrimSpace(req.Descricao))
	req.Serial = strings.ToUpper(strings.TrimSpace(req.Serial))
	req.Aplicacao = strings.ToUpper(strings.TrimSpace(req.Aplicacao))
	req.StatusPatch = req.StatusPatch.Normalize()
	if req.Quantidade == 0 {
		req.Quantidade = 1
	}

	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation(validator.Message(errs))
	}
	if err := stock.ValidateTransition(req.Status, req.StatusPatch); err != nil {
		return nil, err
	}

	taken, err := s.serialTaken(ctx, req.Serial, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateSerial
	}

	item := &model.StockItem{
		Descricao:  req.Descricao,
		Tipo:       strings.TrimSpace(req.Tipo),
		Frequencia: strings.TrimSpace(req.Frequencia),
		Aplicacao:  req.Aplicacao,
		Serial:     req.Serial,
		Quantidade: req.Quantidade,
		Status:     req.Status,
	}
	item.ID = uuid.New()
	req.StatusPatch.Apply(item)
	stock.Seed(item, s.now(), by.actor())

	if err := s.items.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrDuplicateSerial
		}
		return nil, storeErr("create stock item", err, nil)
	}

	s.broadcast("created", item, by, fmt.Sprintf("%s registered %s (%s)", by.actor().Name, item.Descricao, item.Serial))
	events.Emit(s.publisher, events.StockCreated, item)
	return item, nil
}

func (s *stockService) UpdateStatus(ctx context.Context, id uuid.UUID, next model.StockStatus, patch stock.StatusPatch, by Caller) (*model.StockItem, error) {
	patch = patch.Normalize()
	if err := stock.ValidateTransition(next, patch); err != nil {
		return nil, err
	}

	var entry model.StockHistoryEntry
	item, err := s.items.Mutate(ctx, id, func(item *model.StockItem) (*model.StockHistoryEntry, error) {
		entry = stock.ApplyTransition(item, next, patch, s.now(), by.actor())
		return &entry, nil
	})
	if err != nil {
		return nil, storeErr("update stock status", err, ErrStockItemNotFound)
	}

	s.broadcast("status_changed", item, by, fmt.Sprintf("%s: %s -> %s", item.Serial, entry.StatusAnterior, entry.StatusNovo))
	events.Emit(s.publisher, events.StockStatusChanged, map[string]any{
		"id":     item.ID,
		"serial": item.Serial,
		"entry":  entry,
	})
	return item, nil
}

func (s *stockService) Edit(ctx context.Context, id uuid.UUID, patch stock.EditPatch, by Caller) (*model.StockItem, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Serial != nil {
		taken, err := s.serialTaken(ctx, *patch.Serial, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateSerial
		}
	}

	item, err := s.items.Mutate(ctx, id, func(item *model.StockItem) (*model.StockHistoryEntry, error) {
		stock.ApplyEdit(item, patch, s.now(), by.actor())
		return nil, nil
	})
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, ErrDuplicateSerial
	}
	if err != nil {
		return nil, storeErr("edit stock item", err, ErrStockItemNotFound)
	}

	s.broadcast("updated", item, by, "")
	events.Emit(s.publisher, events.StockUpdated, item)
	return item, nil
}

func (s *stockService) Delete(ctx context.Context, id uuid.UUID, by Caller) error {
	if !by.IsAdmin() {
		return ErrForbidden
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return storeErr("delete stock item", err, ErrStockItemNotFound)
	}
	s.wsHub.Publish(ws.Event{Type: ws.TopicStock, Action: "deleted", Data: map[string]string{"id": id.String()}, User: by.wsUser()})
	events.Emit(s.publisher, events.StockDeleted, map[string]string{"id": id.String(), "by": by.Email})
	return nil
}

func (s *stockService) Suggestions(ctx context.Context) (stock.Suggestions, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return stock.Suggestions{}, storeErr("stock suggestions", err, nil)
	}
	return stock.CollectSuggestions(items), nil
}

func (s *stockService) Config(ctx context.Context) (*model.StockConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, storeErr("get stock config", err, nil)
	}
	return cfg, nil
}

func (s *stockService) AddType(ctx context.Context, value string, by Caller) (*model.StockConfig, error) {
	return s.appendOption(ctx, "type_added", value, by, func(cfg *model.StockConfig) *[]string {
		return (*[]string)(&cfg.Tipos)
	})
}

func (s *stockService) AddFrequency(ctx context.Context, value string, by Caller) (*model.StockConfig, error) {
	return s.appendOption(ctx, "frequency_added", value, by, func(cfg *model.StockConfig) *[]string {
		return (*[]string)(&cfg.Frequencias)
	})
}

// appendOption adds value to the list picked by field. Adding an existing value
// is a no-op, not an error.
func (s *stockService) appendOption(ctx context.Context, action, value string, by Caller, field func(*model.StockConfig) *[]string) (*model.StockConfig, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrEmptyOption
	}

	added := false
	cfg, err := s.config.Update(ctx, func(cfg *model.StockConfig) bool {
		list := field(cfg)
		var next stock.OptionList
		next, added = stock.OptionList(*list).With(value)
		*list = next
		return added
	})
	if err != nil {
		return nil, storeErr("update stock config", err, nil)
	}
	if added {
		s.wsHub.Publish(ws.Event{Type: ws.TopicStockConfig, Action: action, Data: cfg, User: by.wsUser()})
	}
	return cfg, nil
}

func (s *stockService) InventoryReport(ctx context.Context, query string, w io.Writer) error {
	items, err := s.List(ctx, query)
	if err != nil {
		return err
	}
	return report.InventoryPDF(w, items, s.now())
}

func (s *stockService) CustodyReport(ctx context.Context, id uuid.UUID, w io.Writer) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return report.CustodyPDF(w, *item, s.now())
}
