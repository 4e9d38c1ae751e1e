// Package stock implements the module lifecycle: status transitions, the chain of
// custody log and the shared option lists. Everything here is pure; persistence and
// authorization live in the service layer.
package stock

import (
	"fmt"
	"strings"
	"time"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
)

const (
	defaultResponsible = "Sistema"
	registeredDetails  = "Item cadastrado no sistema"
	dateLayout         = "2006-01-02"
)

// StatusPatch lists the fields a status transition may set. Nil means "leave as is".
type StatusPatch struct {
	LocalAtual            *string `json:"localAtual,omitempty"`
	AutorizadoPor         *string `json:"autorizadoPor,omitempty"`
	ResponsavelManutencao *string `json:"responsavelManutencao,omitempty"`
	MotivoManutencao      *string `json:"motivoManutencao,omitempty"`
	DataSaida             *string `json:"dataSaida,omitempty"`
	PrevisaoRetorno       *string `json:"previsaoRetorno,omitempty"`
}

// Actor identifies who triggered a change.
type Actor struct {
	UserID string
	Name   string
}

func present(p *string) bool {
	return p != nil && strings.TrimSpace(*p) != ""
}

// Apply copies every non-nil field onto item.
func (p StatusPatch) Apply(item *model.StockItem) {
	if p.LocalAtual != nil {
		item.LocalAtual = *p.LocalAtual
	}
	if p.AutorizadoPor != nil {
		item.AutorizadoPor = *p.AutorizadoPor
	}
	if p.ResponsavelManutencao != nil {
		item.ResponsavelManutencao = *p.ResponsavelManutencao
	}
	if p.MotivoManutencao != nil {
		item.MotivoManutencao = *p.MotivoManutencao
	}
	if p.DataSaida != nil {
		item.DataSaida = *p.DataSaida
	}
	if p.PrevisaoRetorno != nil {
		item.PrevisaoRetorno = *p.PrevisaoRetorno
	}
}

// Normalize uppercases the free-text people and place fields, as the forms do.
func (p StatusPatch) Normalize() StatusPatch {
	p.LocalAtual = upper(p.LocalAtual)
	p.AutorizadoPor = upper(p.AutorizadoPor)
	p.ResponsavelManutencao = upper(p.ResponsavelManutencao)
	p.MotivoManutencao = upper(p.MotivoManutencao)
	p.DataSaida = trim(p.DataSaida)
	p.PrevisaoRetorno = trim(p.PrevisaoRetorno)
	return p
}

func upper(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*p))
	return &v
}

func trim(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

// ValidateTransition checks the fields each target status requires.
func ValidateTransition(next model.StockStatus, patch StatusPatch) error {
	if _, err := model.ParseStockStatus(string(next)); err != nil {
		return apperror.Validation(err.Error())
	}
	switch next {
	case model.StatusInStock:
		return nil
	case model.StatusLentOut:
		if !present(patch.LocalAtual) {
			return apperror.Validation("localAtual is required when lending a module")
		}
		if !present(patch.AutorizadoPor) {
			return apperror.Validation("autorizadoPor is required when lending a module")
		}
		return nil
	case model.StatusUnderMaintenance:
		if !present(patch.ResponsavelManutencao) {
			return apperror.Validation("responsavelManutencao is required for maintenance")
		}
		if !present(patch.MotivoManutencao) {
			return apperror.Validation("motivoManutencao is required for maintenance")
		}
	}
	return nil
}

// NewHistoryEntry derives the custody record for a transition from prev to next.
func NewHistoryEntry(prev, next model.StockStatus, patch StatusPatch, at time.Time) model.StockHistoryEntry {
	responsible := defaultResponsible
	switch {
	case present(patch.AutorizadoPor):
		responsible = *patch.AutorizadoPor
	case present(patch.ResponsavelManutencao):
		responsible = *patch.ResponsavelManutencao
	}

	details := fmt.Sprintf("Alteração de status para %s", next)
	if present(patch.MotivoManutencao) {
		details = *patch.MotivoManutencao
	}

	return model.StockHistoryEntry{
		StatusAnterior: prev,
		StatusNovo:     next,
		Data:           at,
		Responsavel:    responsible,
		Detalhes:       details,
	}
}

// nextSeq relies on Historico being newest first.
func nextSeq(item *model.StockItem) int {
	if len(item.Historico) == 0 {
		return 1
	}
	return item.Historico[0].Seq + 1
}

func prepend(item *model.StockItem, entry model.StockHistoryEntry) {
	entry.StockItemID = item.ID
	entry.Seq = nextSeq(item)
	item.Historico = append([]model.StockHistoryEntry{entry}, item.Historico...)
}

// ApplyTransition moves item to next, records the custody entry at index 0 and
// returns it. Required fields are not checked here; see ValidateTransition.
func ApplyTransition(item *model.StockItem, next model.StockStatus, patch StatusPatch, at time.Time, actor Actor) model.StockHistoryEntry {
	entry := NewHistoryEntry(item.Status, next, patch, at)
	entry.ResponsavelUID = actor.UserID
	prepend(item, entry)

	patch.Apply(item)
	if next == model.StatusUnderMaintenance {
		item.DataSaida = at.Format(dateLayout)
	}
	item.Status = next
	item.DataAtualizacao = at
	if actor.UserID != "" {
		item.UpdatedBy = actor.UserID
	}
	return item.Historico[0]
}

// Seed prepares a new item: registration entry, timestamps and checkout date.
func Seed(item *model.StockItem, at time.Time, actor Actor) {
	item.Historico = nil
	entry := model.StockHistoryEntry{
		StatusAnterior: model.StatusNew,
		StatusNovo:     item.Status,
		Data:           at,
		Responsavel:    actor.Name,
		ResponsavelUID: actor.UserID,
		Detalhes:       registeredDetails,
	}
	prepend(item, entry)

	if item.Status == model.StatusUnderMaintenance {
		item.DataSaida = at.Format(dateLayout)
	}
	item.DataAtualizacao = at
	item.CreatedBy = actor.UserID
	item.UpdatedBy = actor.UserID
}
