package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
)

// Dialog represents a native alert/confirm/prompt/beforeunload dialog the
// driver has intercepted; it must be accepted or dismissed or the page
// navigation it blocks never resolves.
type Dialog struct {
	channelowner.Base

	Type         string
	Message      string
	DefaultValue string
}

type dialogInitializer struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	DefaultValue string `json:"defaultValue"`
}

func newDialog(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init dialogInitializer
	_ = json.Unmarshal(initializer, &init)
	return &Dialog{
		Base:         channelowner.NewBase(sender, guid, "Dialog", parent, initializer),
		Type:         init.Type,
		Message:      init.Message,
		DefaultValue: init.DefaultValue,
	}
}

// Accept accepts the dialog, optionally supplying prompt text.
func (d *Dialog) Accept(promptText string) error {
	_, err := d.Send("accept", struct {
		PromptText string `json:"promptText,omitempty"`
	}{PromptText: promptText})
	return err
}

// Dismiss dismisses the dialog without accepting it.
func (d *Dialog) Dismiss() error {
	_, err := d.Send("dismiss", nil)
	return err
}
