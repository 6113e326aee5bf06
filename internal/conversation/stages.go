package conversation

import (
	"strings"

	"github.com/mityademon-rgb/matveypt-bot/internal/classifier"
	"github.com/mityademon-rgb/matveypt-bot/internal/messaging"
	"github.com/mityademon-rgb/matveypt-bot/internal/session"
	"github.com/mityademon-rgb/matveypt-bot/platform/phone"
)

// input is a lead reply reduced to what the scripted stages look at.
type input struct {
	text        string
	token       Token
	category    session.Category
	hasCategory bool
}

func textInput(text string) input {
	in := input{text: text, token: ClassifyToken(text)}
	in.category, in.hasCategory = MatchCategory(text)
	return in
}

func (e *Engine) handleStage(t *turn, in input) {
	switch t.s.Stage {
	case session.StageAwaitingUnderstanding:
		e.handleUnderstanding(t, in)
	case session.StageAwaitingExplainChoice:
		e.handleExplainChoice(t, in)
	case session.StageAwaitingBusinessType:
		e.handleBusinessType(t, in)
	case session.StageChat:
		if in.text == "" {
			return
		}
		e.chatTurn(t, in.text)
	default:
		e.handleContactStage(t, in)
	}
}

func (e *Engine) handleContactStage(t *turn, in input) {
	text := strings.TrimSpace(in.text)
	switch {
	case text == labelManualContact:
		t.s.Stage = session.StageAwaitingContact
		e.send(t, messaging.Outbound{Text: e.copy.ManualContact, Keyboard: &messaging.Keyboard{Remove: true}})
	case text != "" && IsPhone(text):
		e.captureContact(t, phone.NormalizeE164(stripSpaces(text)), "", "")
	case text != "" && IsEmail(text):
		e.captureContact(t, "", text, "")
	default:
		t.s.Stage = session.StageAwaitingContact
		e.send(t, messaging.Outbound{Text: e.copy.ContactReminder, Keyboard: e.contactKeyboard()})
	}
}

func (e *Engine) handleContact(t *turn) {
	c := t.ev.Contact
	if strings.TrimSpace(c.Phone) == "" {
		return
	}
	e.captureContact(t, phone.NormalizeE164(c.Phone), "", c.DisplayName)
}

// captureContact stores contact details. Only the first capture moves the
// stage on and notifies the operator.
func (e *Engine) captureContact(t *turn, phoneNumber, email, displayName string) {
	p := &t.s.Profile
	if phoneNumber != "" {
		p.Phone = phoneNumber
	}
	if email != "" {
		p.Email = email
	}
	if displayName != "" {
		p.DisplayName = displayName
	}

	if p.ContactCaptured {
		e.send(t, messaging.Outbound{Text: e.copy.ContactUpdated})
		return
	}

	p.ContactCaptured = true
	t.s.Stage = session.StageAwaitingUnderstanding
	e.send(t, messaging.Outbound{Text: e.copy.ContactAck, Keyboard: mainKeyboard()})
	e.send(t, messaging.Outbound{Text: e.copy.Understanding, Keyboard: e.yesNoKeyboard()})
	e.escalator.NotifyContact(t.ctx, t.s)
}

func (e *Engine) handleUnderstanding(t *turn, in input) {
	switch in.token {
	case TokenAffirmative:
		e.askBusinessType(t)
	case TokenNegative:
		t.s.Stage = session.StageAwaitingExplainChoice
		e.send(t, messaging.Outbound{Text: e.copy.ExplainChoice, Keyboard: e.explainKeyboard()})
	default:
		e.send(t, messaging.Outbound{Text: e.copy.Understanding, Keyboard: e.yesNoKeyboard()})
	}
}

func (e *Engine) handleExplainChoice(t *turn, in input) {
	switch in.token {
	case TokenAudio:
		e.sendAudioExplainer(t)
		e.askBusinessType(t)
	case TokenShort, TokenNegative:
		e.send(t, messaging.Outbound{Text: e.copy.ShortExplainer})
		e.askBusinessType(t)
	default:
		e.send(t, messaging.Outbound{Text: e.copy.ExplainChoice, Keyboard: e.explainKeyboard()})
	}
}

func (e *Engine) askBusinessType(t *turn) {
	t.s.Stage = session.StageAwaitingBusinessType
	e.send(t, messaging.Outbound{Text: e.copy.BusinessType, Keyboard: categoryKeyboard()})
}

func (e *Engine) sendAudioExplainer(t *turn) {
	url := e.assetURL(e.copy.Assets.Audio)
	if url != "" {
		err := e.messenger.SendMedia(t.ctx, t.s.ConversationID, messaging.Media{
			Kind:    messaging.MediaAudio,
			URL:     url,
			Caption: e.copy.AudioCaption,
		})
		if err == nil {
			return
		}
		e.log.TransportError("send_audio", t.s.ConversationID, err)
	}
	e.send(t, messaging.Outbound{Text: e.copy.ShortExplainer})
}

func (e *Engine) handleBusinessType(t *turn, in input) {
	if in.hasCategory {
		t.s.Profile.Category = in.category
		t.s.Stage = session.StageChat
		if followup := e.copy.CategoryFollowups[string(in.category)]; followup != "" {
			e.send(t, messaging.Outbound{Text: followup})
		}
		return
	}
	if in.text == "" {
		e.send(t, messaging.Outbound{Text: e.copy.BusinessType, Keyboard: categoryKeyboard()})
		return
	}
	t.s.Stage = session.StageChat
	e.chatTurn(t, in.text)
}

// chatTurn runs one classifier-mediated exchange with the loop guard,
// the turn limit and the confidence hand-off.
func (e *Engine) chatTurn(t *turn, text string) {
	s := t.s
	if s.HardStop {
		e.send(t, messaging.Outbound{Text: e.copy.HardStop, Keyboard: e.nextStepKeyboard(s.ConversationID)})
		return
	}
	if s.TurnCounter >= MaxTurns {
		s.HardStop = true
		e.metrics.HardStop("turn_limit")
		e.send(t, messaging.Outbound{Text: e.copy.TurnLimit, Keyboard: e.nextStepKeyboard(s.ConversationID)})
		return
	}

	reply := e.classifier.Classify(t.ctx, classifier.Request{
		ConversationID: s.ConversationID,
		Transcript:     s.RecentTurns(classifier.ContextWindow),
		NewMessage:     text,
	})
	s.TurnCounter++

	prefix := ReplyPrefix(reply.Text)
	if prefix != "" && prefix == s.LastReplyPrefix {
		s.LoopStrikes++
	} else {
		s.LoopStrikes = 0
	}
	s.LastReplyPrefix = prefix
	if s.LoopStrikes >= 1 {
		s.HardStop = true
		e.metrics.HardStop("loop")
		e.send(t, messaging.Outbound{Text: e.copy.LoopStop, Keyboard: e.nextStepKeyboard(s.ConversationID)})
		return
	}

	s.Append(session.RoleUser, text)
	s.Append(session.RoleAssistant, reply.Text)
	mergeFields(&s.Profile, reply.Fields)

	if reply.Confidence < LowConfidence {
		s.HardStop = true
		e.metrics.HardStop("low_confidence")
		e.send(t, messaging.Outbound{Text: e.copy.LowConfidence, Keyboard: e.managerKeyboard()})
		e.escalator.NotifyLowConfidence(t.ctx, s)
		return
	}

	e.send(t, messaging.Outbound{Text: Rewrite(reply.Text, s.LastOutboundText, e.copy.NoRepeat)})
	e.maybeSendVisual(t, reply.VisualHint)

	if reply.ReadyForQuote && !s.Profile.QuoteShown {
		s.Profile.QuoteShown = true
		e.send(t, messaging.Outbound{Text: e.copy.QuoteNudge, Keyboard: e.calculatorKeyboard(s.ConversationID)})
		e.escalator.NotifyHotLead(t.ctx, s)
	}
}

// mergeFields copies present classifier fields into the profile. Values
// outside the closed category and task sets are dropped.
func mergeFields(p *session.Profile, fields map[string]string) {
	for key, value := range fields {
		switch key {
		case classifier.FieldCategory:
			if c, ok := session.ParseCategory(value); ok {
				p.Category = c
			}
		case classifier.FieldTask:
			if task, ok := session.ParseTask(value); ok {
				p.Task = task
			}
		case classifier.FieldCity:
			p.City = value
		case classifier.FieldSeason:
			p.Season = value
		}
	}
}

func (e *Engine) maybeSendVisual(t *turn, key string) {
	if key == "" {
		return
	}
	s := t.s
	url := e.assetURL(e.copy.Assets.Visuals[key])
	if url == "" || key == s.LastVisualKey {
		return
	}
	now := e.now()
	if !s.LastVisualAt.IsZero() && now.Sub(s.LastVisualAt) < VisualCooldown {
		return
	}
	if err := e.messenger.SendMedia(t.ctx, s.ConversationID, messaging.Media{Kind: messaging.MediaPhoto, URL: url}); err != nil {
		e.log.TransportError("send_photo", s.ConversationID, err)
		return
	}
	s.LastVisualKey = key
	s.LastVisualAt = now
}

// assetURL resolves a catalog path against the web app base URL.
func (e *Engine) assetURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	base := strings.TrimRight(e.cfg.GetWebAppURL(), "/")
	if base == "" {
		return ""
	}
	return base + "/" + strings.TrimLeft(path, "/")
}
