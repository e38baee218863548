package entry

// Entry is the persisted row of a ledger entry. Every column is text so the
// file and SQL backends share one decoding path.
type Entry struct {
	Seq      int64  `gorm:"column:seq;primaryKey;autoIncrement" json:"-"`
	EntryID  string `gorm:"column:entry_id;uniqueIndex;not null" json:"id"`
	Date     string `gorm:"column:date;not null" json:"date"`
	Amount   string `gorm:"column:amount;not null" json:"amount"`
	Category string `gorm:"column:category;not null" json:"category"`
	Note     string `gorm:"column:note;not null;default:''" json:"note"`
	Type     string `gorm:"column:type;not null;default:expense" json:"type"`
}

func (Entry) TableName() string {
	return "entries"
}

// Sequence stores named high-water marks.
type Sequence struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null"`
}

func (Sequence) TableName() string {
	return "ledger_sequences"
}
