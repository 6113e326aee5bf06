package conversation

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed copy.yaml
var defaultCopyYAML []byte

// LinkCopy is a message with one URL button.
type LinkCopy struct {
	Text   string `yaml:"text"`
	Button string `yaml:"button"`
	URL    string `yaml:"url"`
}

// Copy is every lead-facing text the engine sends.
type Copy struct {
	Greeting        string `yaml:"greeting"`
	ContactRequest  string `yaml:"contact_request"`
	ContactReminder string `yaml:"contact_reminder"`
	ManualContact   string `yaml:"manual_contact"`
	ContactAck      string `yaml:"contact_ack"`
	ContactUpdated  string `yaml:"contact_updated"`

	Understanding     string            `yaml:"understanding"`
	ExplainChoice     string            `yaml:"explain_choice"`
	AudioCaption      string            `yaml:"audio_caption"`
	ShortExplainer    string            `yaml:"short_explainer"`
	BusinessType      string            `yaml:"business_type"`
	CategoryFollowups map[string]string `yaml:"category_followups"`

	TurnLimit     string `yaml:"turn_limit"`
	LoopStop      string `yaml:"loop_stop"`
	HardStop      string `yaml:"hard_stop"`
	LowConfidence string `yaml:"low_confidence"`
	NoRepeat      string `yaml:"no_repeat"`
	QuoteNudge    string `yaml:"quote_nudge"`
	Apology       string `yaml:"apology"`

	MenuOpened            string   `yaml:"menu_opened"`
	About                 LinkCopy `yaml:"about"`
	Opportunities         LinkCopy `yaml:"opportunities"`
	Calculator            LinkCopy `yaml:"calculator"`
	CalculatorLocked      string   `yaml:"calculator_locked"`
	CalculatorUnavailable string   `yaml:"calculator_unavailable"`
	Manager               LinkCopy `yaml:"manager"`
	TaskMenu              LinkCopy `yaml:"task_menu"`
	ResetDone             string   `yaml:"reset_done"`
	NoSession             string   `yaml:"no_session"`
	MyID                  string   `yaml:"my_id"`
	OperatorOnly          string   `yaml:"operator_only"`
	NoClients             string   `yaml:"no_clients"`
	TestSent              string   `yaml:"test_sent"`
	TestFailed            string   `yaml:"test_failed"`
	TaskSelected          string   `yaml:"task_selected"`
	PayloadError          string   `yaml:"payload_error"`
	QuoteReceived         string   `yaml:"quote_received"`

	Buttons struct {
		Yes          string `yaml:"yes"`
		No           string `yaml:"no"`
		Audio        string `yaml:"audio"`
		Short        string `yaml:"short"`
		ShareContact string `yaml:"share_contact"`
	} `yaml:"buttons"`

	Assets struct {
		Audio   string            `yaml:"audio"`
		Visuals map[string]string `yaml:"visuals"`
	} `yaml:"assets"`
}

// ParseCopy decodes a copy catalog and checks the texts the state machine
// cannot work without.
func ParseCopy(data []byte) (*Copy, error) {
	var c Copy
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse copy catalog: %w", err)
	}
	required := map[string]string{
		"contact_request": c.ContactRequest,
		"understanding":   c.Understanding,
		"explain_choice":  c.ExplainChoice,
		"business_type":   c.BusinessType,
		"turn_limit":      c.TurnLimit,
		"loop_stop":       c.LoopStop,
		"hard_stop":       c.HardStop,
		"low_confidence":  c.LowConfidence,
		"no_repeat":       c.NoRepeat,
		"apology":         c.Apology,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("copy catalog: %s is empty", key)
		}
	}
	return &c, nil
}

var (
	defaultCopyOnce sync.Once
	defaultCopy     *Copy
)

// DefaultCopy returns the embedded catalog.
func DefaultCopy() *Copy {
	defaultCopyOnce.Do(func() {
		c, err := ParseCopy(defaultCopyYAML)
		if err != nil {
			panic(err)
		}
		defaultCopy = c
	})
	return defaultCopy
}

func fill(tpl, value string) string {
	return strings.ReplaceAll(tpl, "{{.}}", value)
}
