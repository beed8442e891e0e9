package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TaskID identifies a task within the store. New ids are UUIDv7 strings;
// legacy snapshots stored numeric millisecond timestamps, which decode into
// their decimal string form.
type TaskID string

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TaskID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = TaskID(n.String())
	return nil
}

// TaskType is the explicit kind of a task, set at creation time.
type TaskType string

const (
	TypeEvent       TaskType = "event"
	TypeTask        TaskType = "task"
	TypeAppointment TaskType = "appointment"
)

// ParseTaskType maps a stored or submitted value onto a TaskType. An empty
// value means event.
func ParseTaskType(s string) (TaskType, bool) {
	switch TaskType(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypeEvent:
		return TypeEvent, true
	case TypeTask:
		return TypeTask, true
	case TypeAppointment:
		return TypeAppointment, true
	default:
		return "", false
	}
}

// Color returns the display colour used for pending tasks of this type.
func (t TaskType) Color() string {
	switch t {
	case TypeTask:
		return "#34a853"
	case TypeAppointment:
		return "#ea4335"
	default:
		return "#5474b4"
	}
}

// Task is a single event/task/appointment on one calendar date.
//
// JSON names match the persisted "weeklyTasks" layout.
type Task struct {
	ID          TaskID   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`                // YYYY-MM-DD
	StartTime   string   `json:"startTime,omitempty"` // HH:MM
	EndTime     string   `json:"endTime,omitempty"`   // HH:MM
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Type        TaskType `json:"type"`
	Completed   bool     `json:"completed"`
	HasMeet     bool     `json:"hasMeet"`
}

// Notification is the payload handed to a reminder dispatcher.
type Notification struct {
	TaskID TaskID `json:"taskId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Icon   string `json:"icon,omitempty"`
}
