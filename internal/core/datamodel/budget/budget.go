package budget

type Budget struct {
	Key    string `gorm:"column:budget_key;primaryKey"`
	Amount string `gorm:"column:amount;not null"`
}

func (Budget) TableName() string {
	return "budgets"
}
