// Package sqlstore implements budget.Repository with GORM.
package sqlstore

import (
	"fmt"

	"github.com/frahmantamala/pennytrack/internal/budget"
	budgetDatamodel "github.com/frahmantamala/pennytrack/internal/core/datamodel/budget"
	"gorm.io/gorm"
)

// BudgetRepository implements the budget.Repository interface using GORM
type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) budget.Repository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Load() ([]*budget.Budget, error) {
	var rows []*budgetDatamodel.Budget
	if err := r.db.Order("budget_key ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	return budget.FromDataModelSlice(rows)
}

func (r *BudgetRepository) Save(budgets []*budget.Budget) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&budgetDatamodel.Budget{}).Error; err != nil {
			return err
		}
		rows := budget.ToDataModelSlice(budgets)
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(rows).Error
	})
}
