package email

import "github.com/mityademon-rgb/matveypt-bot/internal/events"

const (
	subjectFallback = "Уведомление от бота"
	subjectClosed   = "Сделка закрыта"
)

var subjects = map[events.Trigger]string{
	events.TriggerContactCaptured: "Новый контакт",
	events.TriggerLowConfidence:   "Эскалация: нужен менеджер",
	events.TriggerHotLead:         "Горячий лид",
	events.TriggerQuoteSubmitted:  "Новая заявка из калькулятора",
	events.TriggerTaskSelected:    "Клиент выбрал задачу",
	events.TriggerReminder:        "Напоминание: перезвоните клиенту",
	events.TriggerTest:            "Тестовое уведомление",
}

func subjectFor(trigger events.Trigger, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if s, ok := subjects[trigger]; ok {
		return s
	}
	return subjectFallback
}
