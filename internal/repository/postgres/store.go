package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mamadbah2/flocktrack/internal/daterange"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

// Store groups the repositories. It is bound either to the pool or, through
// WithTx, to one transaction.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an opened database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store whose queries run on tx.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// notFound converts gorm's record-not-found into the domain sentinel.
func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", entity, id, models.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", entity, err)
}

// dayBounds turns a closed range into [first day, day after last day) on
// stored calendar dates, so both ends are inclusive at day granularity.
func dayBounds(r daterange.Range) (time.Time, time.Time) {
	return daterange.CivilDate(r.Start), daterange.CivilDate(r.End).AddDate(0, 0, 1)
}
