package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/events"
	"go-label-ws/internal/label"
	"go-label-ws/internal/model"
	"go-label-ws/internal/repository"
	"go-label-ws/internal/ws"
	"go-label-ws/pkg/validator"
)

var (
	ErrLabelNotFound       = apperror.NotFound("label not found")
	ErrLinkedItemNotFound  = apperror.Validation("linked stock item not found")
	ErrInvalidLabelID      = apperror.Decoding("invalid label id", nil)
	ErrInvalidLinkedItemID = apperror.Validation("invalid stock item id")
)

type LabelService interface {
	Save(ctx context.Context, rec model.LabelRecord, by Caller) (*model.LabelHistory, error)
	List(ctx context.Context, limit int) ([]model.LabelHistory, error)
	Get(ctx context.Context, id uuid.UUID) (*model.LabelHistory, error)
	Delete(ctx context.Context, id uuid.UUID, by Caller) error
	Clear(ctx context.Context, by Caller) (int64, error)
	Preview(ctx context.Context, rec model.LabelRecord) (*Rendered, error)
	Print(ctx context.Context, rec model.LabelRecord, by Caller) (*PrintJob, error)
	Reprint(ctx context.Context, id uuid.UUID) (*PrintJob, error)
	Resolve(ctx context.Context, q url.Values) (*Resolved, error)
	GetSettings(ctx context.Context) (model.LabelSettings, error)
	UpdateSettings(ctx context.Context, s model.LabelSettings, by Caller) (model.LabelSettings, error)
}

// Rendered is a laid out label pair.
type Rendered struct {
	Geometry label.Geometry `json:"geometry"`
	Main     label.Label    `json:"main"`
	Meta     label.Label    `json:"meta"`
}

func (r *Rendered) Document() label.Document {
	return label.Compose(r.Main, r.Meta, r.Geometry)
}

// PrintJob is the outcome of a print. Persisted is false when the record could
// not be stored and the QR symbol carries the data itself.
type PrintJob struct {
	Rendered
	Entry     *model.LabelHistory `json:"entry,omitempty"`
	Persisted bool                `json:"persisted"`
}

// Resolved is what a shared link shows in view-only mode.
type Resolved struct {
	Rendered
	Record model.LabelRecord   `json:"record"`
	Entry  *model.LabelHistory `json:"entry,omitempty"`
}

type labelService struct {
	history   repository.LabelHistoryRepository
	settings  repository.SettingsRepository
	stock     repository.StockRepository
	renderer  label.Renderer
	wsHub     *ws.Hub
	publisher events.Publisher
	now       func() time.Time
}

func NewLabelService(
	history repository.LabelHistoryRepository,
	settings repository.SettingsRepository,
	stockRepo repository.StockRepository,
	renderer label.Renderer,
	hub *ws.Hub,
	publisher events.Publisher,
) LabelService {
	return &labelService{
		history:   history,
		settings:  settings,
		stock:     stockRepo,
		renderer:  renderer,
		wsHub:     hub,
		publisher: publisher,
		now:       time.Now,
	}
}

// prepare normalises rec and resolves the optional stock link: the item must
// exist and its serial fills an empty fleet field.
func (s *labelService) prepare(ctx context.Context, rec model.LabelRecord) (model.LabelRecord, error) {
	rec = rec.Normalize()
	if rec.StockItemID == "" {
		return rec, nil
	}
	id, err := uuid.Parse(rec.StockItemID)
	if err != nil {
		return rec, ErrInvalidLinkedItemID
	}
	item, err := s.stock.FindByID(ctx, id)
	if err != nil {
		return rec, storeErr("find linked stock item", err, ErrLinkedItemNotFound)
	}
	if rec.Frota == "" {
		rec.Frota = strings.ToUpper(item.Serial)
	}
	return rec, nil
}

func (s *labelService) persist(ctx context.Context, rec model.LabelRecord, by Caller) (*model.LabelHistory, error) {
	rec.CreatedBy = model.DisplayName(by.Name, by.Email)
	entry := &model.LabelHistory{
		LabelRecord:     rec,
		CreatedByEmail:  by.Email,
		CreatedByUserID: by.UserID,
		Timestamp:       s.now(),
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.wsHub.Publish(ws.Event{
		Type:    ws.TopicLabelHistory,
		Action:  "created",
		Data:    entry,
		User:    by.wsUser(),
		Message: fmt.Sprintf("%s saved label %s", rec.CreatedBy, entry.ShortID),
	})
	return entry, nil
}

func (s *labelService) Save(ctx context.Context, rec model.LabelRecord, by Caller) (*model.LabelHistory, error) {
	rec, err := s.prepare(ctx, rec)
	if err != nil {
		return nil, err
	}
	entry, err := s.persist(ctx, rec, by)
	if err != nil {
		return nil, storeErr("save label", err, nil)
	}
	return entry, nil
}

func (s *labelService) List(ctx context.Context, limit int) ([]model.LabelHistory, error) {
	entries, err := s.history.FindAll(ctx, limit)
	if err != nil {
		return nil, storeErr("list labels", err, nil)
	}
	return entries, nil
}

func (s *labelService) Get(ctx context.Context, id uuid.UUID) (*model.LabelHistory, error) {
	entry, err := s.history.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get label", err, ErrLabelNotFound)
	}
	return entry, nil
}

func (s *labelService) Delete(ctx context.Context, id uuid.UUID, by Caller) error {
	if err := s.history.Delete(ctx, id); err != nil {
		return storeErr("delete label", err, ErrLabelNotFound)
	}
	s.wsHub.Publish(ws.Event{Type: ws.TopicLabelHistory, Action: "deleted", Data: map[string]string{"id": id.String()}, User: by.wsUser()})
	return nil
}

func (s *labelService) Clear(ctx context.Context, by Caller) (int64, error) {
	n, err := s.history.DeleteAll(ctx)
	if err != nil {
		return 0, storeErr("clear labels", err, nil)
	}
	s.wsHub.Publish(ws.Event{Type: ws.TopicLabelHistory, Action: "cleared", Data: map[string]int64{"deleted": n}, User: by.wsUser()})
	return n, nil
}

func (s *labelService) render(rec model.LabelRecord, settings model.LabelSettings, t label.Target) Rendered {
	main, meta := s.renderer.Pair(rec, settings, t)
	return Rendered{Geometry: label.Layout(settings), Main: main, Meta: meta}
}

func target(entry *model.LabelHistory, mode label.Mode) label.Target {
	if entry == nil {
		return label.Target{Mode: mode}
	}
	return label.Target{ID: entry.ID.String(), ShortID: entry.ShortID, Mode: mode}
}

func (s *labelService) Preview(ctx context.Context, rec model.LabelRecord) (*Rendered, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	rec, err = s.prepare(ctx, rec)
	if err != nil {
		return nil, err
	}
	r := s.render(rec, settings, label.Target{Mode: label.ModePreview})
	return &r, nil
}

// Print stores the record first so the QR symbol can reference it by id. A
// storage failure does not stop the print.
func (s *labelService) Print(ctx context.Context, rec model.LabelRecord, by Caller) (*PrintJob, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	rec, err = s.prepare(ctx, rec)
	if err != nil {
		return nil, err
	}

	entry, err := s.persist(ctx, rec, by)
	if err != nil {
		log.Error().Err(err).Str("cliente", rec.Cliente).Msg("label not persisted, printing self-contained QR")
		entry = nil
	}

	job := &PrintJob{
		Rendered:  s.render(rec, settings, target(entry, label.ModePrint)),
		Entry:     entry,
		Persisted: entry != nil,
	}
	events.Emit(s.publisher, events.LabelPrinted, map[string]any{
		"id":        entryID(entry),
		"cliente":   rec.Cliente,
		"os":        rec.OS,
		"placa":     rec.Placa,
		"persisted": job.Persisted,
		"by":        by.Email,
	})
	return job, nil
}

func entryID(e *model.LabelHistory) string {
	if e == nil {
		return ""
	}
	return e.ID.String()
}

func (s *labelService) Reprint(ctx context.Context, id uuid.UUID) (*PrintJob, error) {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &PrintJob{
		Rendered:  s.render(entry.LabelRecord, settings, target(entry, label.ModePrint)),
		Entry:     entry,
		Persisted: true,
	}, nil
}

func (s *labelService) Resolve(ctx context.Context, q url.Values) (*Resolved, error) {
	ref, err := label.ParseReference(q)
	if err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if ref.Record != nil {
		return &Resolved{
			Rendered: s.render(*ref.Record, settings, label.Target{Mode: label.ModePreview}),
			Record:   *ref.Record,
		}, nil
	}

	id, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, ErrInvalidLabelID
	}
	entry, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Resolved{
		Rendered: s.render(entry.LabelRecord, settings, target(entry, label.ModePreview)),
		Record:   entry.LabelRecord,
		Entry:    entry,
	}, nil
}

func (s *labelService) GetSettings(ctx context.Context) (model.LabelSettings, error) {
	row, err := s.settings.Get(ctx, model.SettingLabelKey)
	if errors.Is(err, repository.ErrNotFound) {
		return model.DefaultLabelSettings(), nil
	}
	if err != nil {
		return model.LabelSettings{}, storeErr("get label settings", err, nil)
	}

	settings := model.DefaultLabelSettings()
	if err := json.Unmarshal(row.Value, &settings); err != nil {
		log.Warn().Err(err).Msg("stored label settings unreadable, using defaults")
		return model.DefaultLabelSettings(), nil
	}
	return settings, nil
}

func (s *labelService) UpdateSettings(ctx context.Context, settings model.LabelSettings, by Caller) (model.LabelSettings, error) {
	if errs := validator.ValidateStruct(settings); len(errs) > 0 {
		return model.LabelSettings{}, apperror.Validation(validator.Message(errs))
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return model.LabelSettings{}, err
	}
	row := &model.AppSetting{
		Key:       model.SettingLabelKey,
		Value:     datatypes.JSON(raw),
		UpdatedAt: s.now(),
		UpdatedBy: by.UserID,
	}
	if err := s.settings.Put(ctx, row); err != nil {
		return model.LabelSettings{}, storeErr("save label settings", err, nil)
	}
	s.wsHub.Publish(ws.Event{Type: ws.TopicSettings, Action: "updated", Data: settings, User: by.wsUser()})
	return settings, nil
}
