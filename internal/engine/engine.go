package engine

import (
	"log"

	"gorm.io/gorm"
)

// Engine is the transactional content-graph mutation engine. Every mutation
// either fully applies, with all denormalized counters and relation rows
// updated, or fully fails. The engine holds no state between calls; all
// entities live in the storage layer.
type Engine struct {
	db     *gorm.DB
	logger *log.Logger
}

func New(db *gorm.DB, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{db: db, logger: logger}
}
