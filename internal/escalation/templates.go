package escalation

import (
	"strings"
	"text/template"
)

const leadBlock = `👤 {{or .Name "Без имени"}}
📱 {{or .Phone "нет"}}{{if .Email}}
📧 {{.Email}}{{end}}
💬 @{{or .Username "нет"}}

🏢 {{or .Category "?"}}{{if .City}}, {{.City}}{{end}}
🎯 {{or .Task "?"}}{{if .Season}}
📅 {{.Season}}{{end}}

Написать: {{.Link}}`

var (
	contactTpl = template.Must(template.New("contact").Option("missingkey=zero").Parse(
		`📞 НОВЫЙ КОНТАКТ

Имя: {{or .Name "нет"}}
{{if .Phone}}Телефон: {{.Phone}}{{else}}Email: {{.Email}}{{end}}
Telegram: @{{or .Username "нет"}}
ID: {{.ConversationID}}`))

	escalationTpl = template.Must(template.New("escalation").Option("missingkey=zero").Parse(
		`{{.Header}}

` + leadBlock + `{{if .Dialog}}

Диалог:
{{range $i, $l := .Dialog}}{{if $i}}

{{end}}{{$l.Icon}} {{$l.Text}}{{end}}{{end}}`))

	reminderTpl = template.Must(template.New("reminder").Option("missingkey=zero").Parse(
		`⏰ НАПОМИНАНИЕ!

Клиент {{or .Name "без имени"}} открыл калькулятор {{.Minutes}} минут назад!

📱 Телефон: {{or .Phone "НЕТ"}}
💬 Telegram: @{{or .Username "нет"}}

⚠️ КЛИЕНТ МОЖЕТ ОСТЫТЬ — ЗВОНИТЕ СРОЧНО!

Написать: {{.Link}}

Время: {{.Time}}`))

	quoteTpl = template.Must(template.New("quote").Option("missingkey=zero").Parse(
		`💰 ЗАЯВКА ИЗ КАЛЬКУЛЯТОРА

` + leadBlock + `

Категория: {{or .QuoteCategory "не указана"}}{{range .LineItems}}
• {{.}}{{end}}{{range .Options}}
◦ {{.}}{{end}}

Итого: {{.Total}}`))

	taskTpl = template.Must(template.New("task").Option("missingkey=zero").Parse(
		`🎯 Клиент выбрал: {{.TaskTitle}}

👤 {{or .Name "Без имени"}}
💬 @{{or .Username "нет"}}`))

	testTpl = template.Must(template.New("test").Option("missingkey=zero").Parse(
		`🧪 ТЕСТОВОЕ УВЕДОМЛЕНИЕ

От: {{or .Name "нет"}}
Chat ID: {{.ConversationID}}
Telegram: @{{or .Username "нет"}}

Если видишь это — работает! ✅

Время: {{.Time}}`))

	fallbackTpl = template.Must(template.New("fallback").Option("missingkey=zero").Parse(
		`{{.Header}}
{{or .Name "Без имени"}} {{or .Phone .Email "нет контакта"}}
{{.Link}}`))
)

func render(tpl *template.Template, data view) string {
	var b strings.Builder
	if err := tpl.Execute(&b, data); err != nil {
		return data.Header + "\n" + data.ConversationID
	}
	return b.String()
}
