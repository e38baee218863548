package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEntryAppended          = "entry.appended"
	EventTypeBudgetAlert            = "budget.alert"
	EventTypeRecurrenceMaterialized = "recurrence.materialized"
)

type EntryAppendedEvent struct {
	BaseEvent
	EntryID  string `json:"entry_id"`
	Date     string `json:"date"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Kind     string `json:"kind"`
}

func NewEntryAppendedEvent(entryID, date, amount, category, kind string) *EntryAppendedEvent {
	return &EntryAppendedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEntryAppended,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id": entryID,
				"date":     date,
				"amount":   amount,
				"category": category,
				"kind":     kind,
			},
		},
		EntryID:  entryID,
		Date:     date,
		Amount:   amount,
		Category: category,
		Kind:     kind,
	}
}

type BudgetAlertEvent struct {
	BaseEvent
	Key       string `json:"key"`
	Month     string `json:"month"`
	Category  string `json:"category"`
	Spend     string `json:"spend"`
	Threshold string `json:"threshold"`
	Percent   string `json:"percent"`
	Status    string `json:"status"`
}

func NewBudgetAlertEvent(key, month, category, spend, threshold, percent, status string) *BudgetAlertEvent {
	return &BudgetAlertEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBudgetAlert,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"key":       key,
				"spend":     spend,
				"threshold": threshold,
				"percent":   percent,
				"status":    status,
			},
		},
		Key:       key,
		Month:     month,
		Category:  category,
		Spend:     spend,
		Threshold: threshold,
		Percent:   percent,
		Status:    status,
	}
}

type RecurrenceMaterializedEvent struct {
	BaseEvent
	EntryID   string `json:"entry_id"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
}

func NewRecurrenceMaterializedEvent(entryID, amount, category, frequency string) *RecurrenceMaterializedEvent {
	return &RecurrenceMaterializedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRecurrenceMaterialized,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id":  entryID,
				"amount":    amount,
				"category":  category,
				"frequency": frequency,
			},
		},
		EntryID:   entryID,
		Amount:    amount,
		Category:  category,
		Frequency: frequency,
	}
}
