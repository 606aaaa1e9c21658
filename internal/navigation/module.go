package navigation

import (
	apphttp "inmova_backend/internal/http"
)

// Module serves the navigation tables.
type Module struct {
	handler *Handler
	table   *Table
}

// NewModule loads the embedded tables.
func NewModule() (*Module, error) {
	table, err := Load()
	if err != nil {
		return nil, err
	}
	return &Module{handler: NewHandler(table), table: table}, nil
}

func (m *Module) Name() string {
	return "navigation"
}

// Table exposes the loaded tables.
func (m *Module) Table() *Table {
	return m.table
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/navigation"))
}

var _ apphttp.Module = (*Module)(nil)
