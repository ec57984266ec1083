// elementhandle.go — spec.md §4.4: ElementHandle is a channel-owner handle
// to one resolved DOM node, with in-page actions sent through its own guid.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
)

// ElementHandle is a reference to a single DOM element living in the
// driver's page process.
type ElementHandle struct {
	channelowner.Base
}

func newElementHandle(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	return &ElementHandle{
		Base: channelowner.NewBase(sender, guid, "ElementHandle", parent, initializer),
	}
}

// Click clicks the element.
func (e *ElementHandle) Click() error {
	_, err := e.Send("click", nil)
	return err
}

// Fill sets the element's value.
func (e *ElementHandle) Fill(value string) error {
	_, err := e.Send("fill", struct {
		Value string `json:"value"`
	}{Value: value})
	return err
}

// TextContent returns the element's text content.
func (e *ElementHandle) TextContent() (string, error) {
	raw, err := e.Send("textContent", nil)
	if err != nil {
		return "", err
	}
	var res struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", errs.Wrap(errs.KindProtocolError, "parse textContent response", err)
	}
	return res.Value, nil
}

// IsVisible reports whether the element is currently visible.
func (e *ElementHandle) IsVisible() (bool, error) {
	raw, err := e.Send("isVisible", nil)
	if err != nil {
		return false, err
	}
	var res struct {
		Value bool `json:"value"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return false, errs.Wrap(errs.KindProtocolError, "parse isVisible response", err)
	}
	return res.Value, nil
}
