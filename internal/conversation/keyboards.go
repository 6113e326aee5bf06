package conversation

import (
	"strings"

	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
)

// Reply keyboard labels. The lead sends them back as plain text.
const (
	labelAbout         = "📺 О канале"
	labelOpportunities = "🎯 Рекламные возможности"
	labelCalculator    = "💰 Посчитать бюджет"
	labelManager       = "📞 Связаться с менеджером"
	labelRestart       = "🔄 Начать заново"
	labelManualContact = "✍️ Написать вручную"
)

const (
	calculatorPath = "/calculator.html"
	taskMenuPath   = "/menu.html"
)

func mainKeyboard() *messaging.Keyboard {
	return &messaging.Keyboard{
		Rows: [][]messaging.Button{
			messaging.Row(textButton(labelAbout), textButton(labelOpportunities)),
			messaging.Row(textButton(labelCalculator)),
			messaging.Row(textButton(labelManager)),
		},
	}
}

func (e *Engine) contactKeyboard() *messaging.Keyboard {
	return &messaging.Keyboard{
		OneTime: true,
		Rows: [][]messaging.Button{
			messaging.Row(messaging.Button{Kind: messaging.ButtonRequestContact, Label: e.copy.Buttons.ShareContact}),
			messaging.Row(textButton(labelManualContact)),
		},
	}
}

func (e *Engine) yesNoKeyboard() *messaging.Keyboard {
	return inline(messaging.Row(
		callbackButton(e.copy.Buttons.Yes, callbackYes),
		callbackButton(e.copy.Buttons.No, callbackNo),
	))
}

func (e *Engine) explainKeyboard() *messaging.Keyboard {
	return inline(messaging.Row(
		callbackButton(e.copy.Buttons.Audio, callbackAudio),
		callbackButton(e.copy.Buttons.Short, callbackShort),
	))
}

func categoryKeyboard() *messaging.Keyboard {
	return inline(
		messaging.Row(callbackButton("🏨 Отель", callbackCategory+"hotel"), callbackButton("🗺 Объект", callbackCategory+"object")),
		messaging.Row(callbackButton("🌄 Регион", callbackCategory+"region"), callbackButton("🚀 Бренд/сервис", callbackCategory+"brand")),
	)
}

// managerKeyboard is nil when no operator username is configured.
func (e *Engine) managerKeyboard() *messaging.Keyboard {
	url := e.managerURL()
	if url == "" {
		return nil
	}
	return inline(messaging.Row(messaging.Button{Kind: messaging.ButtonURL, Label: e.copy.Manager.Button, Data: url}))
}

func (e *Engine) calculatorKeyboard(conversationID string) *messaging.Keyboard {
	url := e.calculatorURL(conversationID)
	if url == "" {
		return e.managerKeyboard()
	}
	return inline(messaging.Row(messaging.Button{Kind: messaging.ButtonWebApp, Label: e.copy.Calculator.Button, Data: url}))
}

// nextStepKeyboard offers the calculator and the manager side by side.
func (e *Engine) nextStepKeyboard(conversationID string) *messaging.Keyboard {
	var row []messaging.Button
	if url := e.calculatorURL(conversationID); url != "" {
		row = append(row, messaging.Button{Kind: messaging.ButtonWebApp, Label: e.copy.Calculator.Button, Data: url})
	}
	if url := e.managerURL(); url != "" {
		row = append(row, messaging.Button{Kind: messaging.ButtonURL, Label: e.copy.Manager.Button, Data: url})
	}
	if len(row) == 0 {
		return nil
	}
	return inline(row)
}

func (e *Engine) calculatorURL(conversationID string) string {
	if e.linker != nil {
		if url := e.linker.CalculatorURL(conversationID); url != "" {
			return url
		}
	}
	return e.webAppURL(calculatorPath)
}

func (e *Engine) webAppURL(path string) string {
	base := strings.TrimRight(e.cfg.GetWebAppURL(), "/")
	if base == "" {
		return ""
	}
	return base + path
}

func (e *Engine) managerURL() string {
	username := strings.TrimPrefix(strings.TrimSpace(e.cfg.GetOperatorUsername()), "@")
	if username == "" {
		return ""
	}
	return "https://t.me/" + username
}

func inline(rows ...[]messaging.Button) *messaging.Keyboard {
	return &messaging.Keyboard{Inline: true, Rows: rows}
}

func textButton(label string) messaging.Button {
	return messaging.Button{Kind: messaging.ButtonText, Label: label}
}

func callbackButton(label, data string) messaging.Button {
	return messaging.Button{Kind: messaging.ButtonCallback, Label: label, Data: data}
}

func urlButton(label, url string) messaging.Button {
	return messaging.Button{Kind: messaging.ButtonURL, Label: label, Data: url}
}
