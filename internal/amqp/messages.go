package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"kharcha/internal/core"
)

// Event types.
const (
	ExpenseAppended = "expense.appended"
	SettingsChanged = "settings.changed"
)

// Event announces a change made through the API. It carries the full
// record so consumers never read back from the origin store.
type Event struct {
	Type       string           `json:"type"`
	Expense    *core.Expense    `json:"expense,omitempty"`
	Vocabulary *core.Vocabulary `json:"vocabulary,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

func NewExpenseAppended(e core.Expense) *Event {
	return &Event{Type: ExpenseAppended, Expense: &e, Timestamp: time.Now().UTC()}
}

func NewSettingsChanged(v core.Vocabulary) *Event {
	return &Event{Type: SettingsChanged, Vocabulary: &v, Timestamp: time.Now().UTC()}
}

func (m *Event) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventFromJSON decodes and checks that the payload matches the type.
func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Type {
	case ExpenseAppended:
		if ev.Expense == nil || ev.Expense.ID == "" {
			return nil, fmt.Errorf("%s without expense", ev.Type)
		}
	case SettingsChanged:
		if ev.Vocabulary == nil {
			return nil, fmt.Errorf("%s without vocabulary", ev.Type)
		}
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return &ev, nil
}
