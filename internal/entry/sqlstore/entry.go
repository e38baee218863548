// Package sqlstore implements entry.Repository with GORM on sqlite or postgres.
package sqlstore

import (
	"errors"
	"fmt"

	entryDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/entry"
	"github.com/frahmantamala/pennytrack/internal/entry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entrySequence = "entries"

// EntryRepository implements the entry.Repository interface using GORM
type EntryRepository struct {
	db *gorm.DB
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *gorm.DB) entry.Repository {
	return &EntryRepository{db: db}
}

// LoadAll reads every row in insertion order
func (r *EntryRepository) LoadAll() ([]*entry.Entry, error) {
	var rows []*entryDatamodel.Entry
	if err := r.db.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	return entry.FromDataModelSlice(rows)
}

// Append inserts one row
func (r *EntryRepository) Append(e *entry.Entry) error {
	return r.db.Create(entry.ToDataModel(e)).Error
}

// ReplaceAll swaps the table contents inside one transaction
func (r *EntryRepository) ReplaceAll(entries []*entry.Entry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entryDatamodel.Entry{}).Error; err != nil {
			return err
		}
		for _, row := range entry.ToDataModelSlice(entries) {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EntryRepository) HighWater() (int64, error) {
	var seq entryDatamodel.Sequence
	err := r.db.Where("name = ?", entrySequence).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return seq.Value, nil
}

func (r *EntryRepository) SetHighWater(n int64) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entryDatamodel.Sequence{Name: entrySequence, Value: n}).Error
}
