package repository

import (
	"context"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"gorm.io/gorm"
)

// Tx is an explicit unit of work. Every mutating repository call receives one.
type Tx struct {
	db *gorm.DB
}

// NewTx wraps an existing gorm handle. Sequencer calls fail with an integrity
// error unless the handle is inside a transaction.
func NewTx(db *gorm.DB) *Tx {
	return &Tx{db: db}
}

// DB returns the underlying gorm handle.
func (tx *Tx) DB() *gorm.DB {
	return tx.db
}

// inTransaction reports whether the handle runs inside a database transaction.
func (tx *Tx) inTransaction() bool {
	if tx == nil || tx.db == nil {
		return false
	}
	_, ok := tx.db.Statement.ConnPool.(gorm.TxCommitter)
	return ok
}

// requireTx returns the transactional handle or an integrity error.
func requireTx(tx *Tx) (*gorm.DB, error) {
	if !tx.inTransaction() {
		return nil, apperr.Integrity("position update outside a transaction")
	}
	return tx.db, nil
}

// Transactor opens units of work.
type Transactor interface {
	Run(ctx context.Context, fn func(tx *Tx) error) error
}

// GormTransactor runs units of work with gorm's managed transactions.
type GormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a new Transactor
func NewTransactor(db *gorm.DB) Transactor {
	return &GormTransactor{db: db}
}

// Run commits when fn returns nil and rolls back otherwise, including on panic.
func (t *GormTransactor) Run(ctx context.Context, fn func(tx *Tx) error) error {
	return t.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&Tx{db: gtx})
	})
}
