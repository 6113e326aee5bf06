package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEscalationReminder = "escalation.reminder"

type ReminderPayload struct {
	ConversationID string `json:"conversationId"`
	ReminderID     string `json:"reminderId"`
}

func NewReminderTask(payload ReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEscalationReminder, data), nil
}

func ParseReminderPayload(task *asynq.Task) (ReminderPayload, error) {
	var payload ReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReminderPayload{}, err
	}
	return payload, nil
}
