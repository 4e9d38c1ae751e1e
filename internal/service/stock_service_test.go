package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
	"go-label-ws/internal/stock"
)

type stockFixture struct {
	svc    *stockService
	items  *stubStockRepo
	config *stubStockConfigRepo
	clock  time.Time
}

func newStockFixture() *stockFixture {
	f := &stockFixture{
		items:  newStubStockRepo(),
		config: newStubStockConfigRepo(),
		clock:  time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewStockService(f.items, f.config, nil, nil).(*stockService)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

var admin = Caller{UserID: uuid.NewString(), Name: "Root", Email: "root@example.com", Role: model.RoleAdmin}

func str(v string) *string { return &v }

func (f *stockFixture) add(t *testing.T, serial string) *model.StockItem {
	t.Helper()
	item, err := f.svc.Add(context.Background(), AddStockRequest{
		Descricao: "ecu motor",
		Serial:    serial,
		Status:    model.StatusInStock,
	}, operator)
	require.NoError(t, err)
	return item
}

func TestAddStockItem(t *testing.T) {
	f := newStockFixture()

	item := f.add(t, "ab12")

	assert.Equal(t, "ECU MOTOR", item.Descricao)
	assert.Equal(t, "AB12", item.Serial)
	assert.Equal(t, 1, item.Quantidade)
	require.Len(t, item.Historico, 1)
	assert.Equal(t, model.StatusNew, item.Historico[0].StatusAnterior)
	assert.Equal(t, "Ana", item.Historico[0].Responsavel)
}

func TestDuplicateSerialLeavesStoreUnchanged(t *testing.T) {
	f := newStockFixture()
	f.add(t, "AB12")

	_, err := f.svc.Add(context.Background(), AddStockRequest{Descricao: "OUTRO", Serial: "ab12", Status: model.StatusInStock}, operator)

	assert.ErrorIs(t, err, ErrDuplicateSerial)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, 1, f.items.count())
}

func TestAddValidatesStatusFields(t *testing.T) {
	f := newStockFixture()

	_, err := f.svc.Add(context.Background(), AddStockRequest{Descricao: "X", Serial: "S1", Status: model.StatusLentOut}, operator)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.svc.Add(context.Background(), AddStockRequest{Descricao: "X", Serial: "S1", Status: "Perdido"}, operator)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	assert.Zero(t, f.items.count())
}

func TestLendModule(t *testing.T) {
	f := newStockFixture()
	item := f.add(t, "AB12")

	got, err := f.svc.UpdateStatus(context.Background(), item.ID, model.StatusLentOut, stock.StatusPatch{
		LocalAtual:    str("oficina 2"),
		AutorizadoPor: str("carlos"),
	}, operator)
	require.NoError(t, err)

	h := got.Historico[0]
	assert.Equal(t, model.StatusInStock, h.StatusAnterior)
	assert.Equal(t, model.StatusLentOut, h.StatusNovo)
	assert.Equal(t, "CARLOS", h.Responsavel)
	assert.Equal(t, "Alteração de status para Emprestado", h.Detalhes)
	assert.Equal(t, "OFICINA 2", got.LocalAtual)

	stored, err := f.svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Historico, 2)
}

func TestHistoryLengthAfterTransitions(t *testing.T) {
	f := newStockFixture()
	item := f.add(t, "AB12")
	lend := stock.StatusPatch{LocalAtual: str("PATIO"), AutorizadoPor: str("ANA")}
	fix := stock.StatusPatch{ResponsavelManutencao: str("BETO"), MotivoManutencao: str("SEM SINAL")}

	steps := []struct {
		status model.StockStatus
		patch  stock.StatusPatch
	}{
		{model.StatusLentOut, lend},
		{model.StatusInStock, stock.StatusPatch{}},
		{model.StatusUnderMaintenance, fix},
		{model.StatusInStock, stock.StatusPatch{}},
	}
	for i, step := range steps {
		got, err := f.svc.UpdateStatus(context.Background(), item.ID, step.status, step.patch, operator)
		require.NoError(t, err)
		assert.Len(t, got.Historico, i+2)
		assert.Equal(t, step.status, got.Historico[0].StatusNovo)
	}
}

func TestUpdateStatusUnknownItem(t *testing.T) {
	f := newStockFixture()

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), model.StatusInStock, stock.StatusPatch{}, operator)

	assert.ErrorIs(t, err, ErrStockItemNotFound)
}

func TestEditStockItem(t *testing.T) {
	f := newStockFixture()
	item := f.add(t, "AB12")
	other := f.add(t, "ZZ01")

	got, err := f.svc.Edit(context.Background(), item.ID, stock.EditPatch{Aplicacao: str("volvo fh")}, operator)
	require.NoError(t, err)
	assert.Equal(t, "VOLVO FH", got.Aplicacao)
	assert.Len(t, got.Historico, 1)

	_, err = f.svc.Edit(context.Background(), item.ID, stock.EditPatch{Serial: str("zz01")}, operator)
	assert.ErrorIs(t, err, ErrDuplicateSerial)

	_, err = f.svc.Edit(context.Background(), other.ID, stock.EditPatch{Serial: str("ZZ01")}, operator)
	assert.NoError(t, err)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	f := newStockFixture()
	item := f.add(t, "AB12")

	err := f.svc.Delete(context.Background(), item.ID, operator)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, f.items.count())

	require.NoError(t, f.svc.Delete(context.Background(), item.ID, admin))
	assert.Zero(t, f.items.count())
	assert.ErrorIs(t, f.svc.Delete(context.Background(), item.ID, admin), ErrStockItemNotFound)
}

func TestAddTypeIsAppendOnlySet(t *testing.T) {
	f := newStockFixture()
	ctx := context.Background()

	cfg, err := f.svc.AddType(ctx, "Telemetria", operator)
	require.NoError(t, err)
	assert.Equal(t, "Telemetria", cfg.Tipos[len(cfg.Tipos)-1])
	size := len(cfg.Tipos)

	cfg, err = f.svc.AddType(ctx, "ABS", operator)
	require.NoError(t, err)
	assert.Len(t, cfg.Tipos, size)

	cfg, err = f.svc.AddFrequency(ctx, " 433 MHz ", operator)
	require.NoError(t, err)
	assert.Contains(t, cfg.Frequencias, "433 MHz")

	_, err = f.svc.AddType(ctx, "  ", operator)
	assert.ErrorIs(t, err, ErrEmptyOption)
}

func TestListAndSuggestions(t *testing.T) {
	f := newStockFixture()
	a := f.add(t, "AB12")
	f.add(t, "ZZ01")
	_, err := f.svc.UpdateStatus(context.Background(), a.ID, model.StatusLentOut, stock.StatusPatch{
		LocalAtual: str("OFICINA 2"), AutorizadoPor: str("CARLOS"),
	}, operator)
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)

	some, err := f.svc.List(context.Background(), "zz")
	require.NoError(t, err)
	assert.Len(t, some, 1)

	s, err := f.svc.Suggestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"OFICINA 2"}, s.Locais)
	assert.Equal(t, []string{"CARLOS"}, s.Responsaveis)
}

func TestReports(t *testing.T) {
	f := newStockFixture()
	item := f.add(t, "AB12")

	var inv, custody bytes.Buffer
	require.NoError(t, f.svc.InventoryReport(context.Background(), "", &inv))
	require.NoError(t, f.svc.CustodyReport(context.Background(), item.ID, &custody))
	assert.True(t, bytes.HasPrefix(inv.Bytes(), []byte("%PDF")))
	assert.True(t, bytes.HasPrefix(custody.Bytes(), []byte("%PDF")))

	assert.ErrorIs(t, f.svc.CustodyReport(context.Background(), uuid.New(), &custody), ErrStockItemNotFound)
}
