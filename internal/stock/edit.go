package stock

import (
	"strings"
	"time"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
)

// EditPatch is a field edit. It cannot carry a status, so edits never touch the
// custody log.
type EditPatch struct {
	Descricao  *string `json:"descricao,omitempty"`
	Tipo       *string `json:"tipo,omitempty"`
	Frequencia *string `json:"frequencia,omitempty"`
	Aplicacao  *string `json:"aplicacao,omitempty"`
	Serial     *string `json:"serial,omitempty"`
	Quantidade *int    `json:"quantidade,omitempty"`
	StatusPatch
}

func (p EditPatch) Normalize() EditPatch {
	p.Descricao = upper(p.Descricao)
	p.Tipo = trim(p.Tipo)
	p.Frequencia = trim(p.Frequencia)
	p.Aplicacao = upper(p.Aplicacao)
	p.Serial = upper(p.Serial)
	p.StatusPatch = p.StatusPatch.Normalize()
	return p
}

func (p EditPatch) Validate() error {
	if p.Descricao != nil && strings.TrimSpace(*p.Descricao) == "" {
		return apperror.Validation("descricao cannot be empty")
	}
	if p.Serial != nil && strings.TrimSpace(*p.Serial) == "" {
		return apperror.Validation("serial cannot be empty")
	}
	if p.Quantidade != nil && *p.Quantidade < 1 {
		return apperror.Validation("quantidade must be at least 1")
	}
	return nil
}

// ApplyEdit merges p onto item and refreshes DataAtualizacao.
func ApplyEdit(item *model.StockItem, p EditPatch, at time.Time, actor Actor) {
	if p.Descricao != nil {
		item.Descricao = *p.Descricao
	}
	if p.Tipo != nil {
		item.Tipo = *p.Tipo
	}
	if p.Frequencia != nil {
		item.Frequencia = *p.Frequencia
	}
	if p.Aplicacao != nil {
		item.Aplicacao = *p.Aplicacao
	}
	if p.Serial != nil {
		item.Serial = *p.Serial
	}
	if p.Quantidade != nil {
		item.Quantidade = *p.Quantidade
	}
	p.StatusPatch.Apply(item)
	item.DataAtualizacao = at
	if actor.UserID != "" {
		item.UpdatedBy = actor.UserID
	}
}
