// Package modkit provides module wiring and core deps
package modkit

import (
	"apiloader/internal/modkit/repokit"
	"apiloader/internal/platform/config"
	"apiloader/internal/platform/logger"
	"apiloader/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	DB      repokit.TxRunner
	Dialect store.Dialect
}

// FromStore fills the database fields from an opened store
func (d Deps) FromStore(s *store.Store) Deps {
	if s != nil {
		d.DB = s.DB
		d.Dialect = s.Dialect
	}
	return d
}
