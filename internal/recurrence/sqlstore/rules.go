// Package sqlstore implements recurrence.Repository with GORM.
package sqlstore

import (
	"fmt"

	ruleDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/recurrence"
	"github.com/frahmantamala/pennytrack/internal/recurrence"
	"gorm.io/gorm"
)

// RuleRepository implements the recurrence.Repository interface using GORM
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) recurrence.Repository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Load() ([]*recurrence.Rule, error) {
	var rows []*ruleDatamodel.Rule
	if err := r.db.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query recurring rules: %w", err)
	}
	return recurrence.FromDataModelSlice(rows)
}

// Save replaces the stored list, keeping its order
func (r *RuleRepository) Save(rules []*recurrence.Rule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ruleDatamodel.Rule{}).Error; err != nil {
			return err
		}
		for _, row := range recurrence.ToDataModelSlice(rules) {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
