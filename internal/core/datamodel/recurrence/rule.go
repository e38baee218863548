package recurrence

type Rule struct {
	Seq       int64  `gorm:"column:seq;primaryKey;autoIncrement" json:"-"`
	Amount    string `gorm:"column:amount;not null" json:"amount"`
	Category  string `gorm:"column:category;not null" json:"category"`
	Note      string `gorm:"column:note;not null;default:''" json:"note"`
	Frequency string `gorm:"column:frequency;not null" json:"frequency"`
	LastAdded string `gorm:"column:last_added;not null" json:"last_added"`
}

func (Rule) TableName() string {
	return "recurring_rules"
}
