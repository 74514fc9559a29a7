// Package pipeline implements the export reconciliation flow: merging the
// capture tables into the canonical record set, packaging rows into the
// export ledger, transforming packaged rows to the downstream import schema
// and filling the import template.
package pipeline

import (
	"go.uber.org/zap"

	"sdi/internal/config"
	"sdi/internal/storage"
)

type Service struct {
	db  *storage.DB
	cfg config.Config
	log *zap.Logger
}

func NewService(db *storage.DB, cfg config.Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, cfg: cfg, log: log}
}
