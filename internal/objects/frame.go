// frame.go — spec.md §4.4: Frame underlies all element interaction;
// selector-scoped RPCs carry strict:true for single-element operations.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
	"github.com/corvid-labs/drivebridge/internal/evalserial"
)

// Frame is one navigable DOM frame, the main frame or a nested iframe.
type Frame struct {
	channelowner.Base
	URL  string
	Name string
}

type frameInitializer struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func newFrame(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init frameInitializer
	_ = json.Unmarshal(initializer, &init)
	frame := &Frame{
		Base: channelowner.NewBase(sender, guid, "Frame", parent, initializer),
		URL:  init.URL,
		Name: init.Name,
	}
	// A frame whose guid matches its owning page's declared main-frame guid
	// self-attaches, regardless of whether the page or the frame's
	// __create__ event arrived first (spec §4.4).
	if page, ok := parent.(*Page); ok && page.mainFrameGUID() == guid {
		page.MainFrame = frame
	}
	return frame
}

// QuerySelectorRPC sends a selector-scoped method with the strict flag set,
// returning the raw result for the caller (typically a Locator) to parse.
func (f *Frame) QuerySelectorRPC(method, selector string, strict bool, extra map[string]interface{}) (json.RawMessage, error) {
	params := map[string]interface{}{"selector": selector, "strict": strict}
	for k, v := range extra {
		params[k] = v
	}
	return f.Send(method, params)
}

// EvaluateExpression evaluates expr in the frame's JavaScript context with
// arg serialized per spec §4.4's type-tagged form, and parses the result
// back into a plain value.
func (f *Frame) EvaluateExpression(expr string, arg interface{}) (interface{}, error) {
	serializedArg, err := evalserial.Serialize(arg)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidArgument, "serialize evaluate argument", err)
	}

	raw, err := f.Send("evaluateExpression", struct {
		Expression string                `json:"expression"`
		Arg        evalserial.WireValue  `json:"arg"`
	}{Expression: expr, Arg: serializedArg})
	if err != nil {
		return nil, err
	}

	var wire struct {
		Value evalserial.WireValue `json:"value"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse evaluateExpression response", err)
	}
	return evalserial.Parse(wire.Value)
}

// EvaluateExpressionOnSelector resolves selector to an element (strict
// unless a nth()/first()/last() modifier already disambiguated it) and
// evaluates expr with that element bound as the expression's sole
// argument. Used for assertions the driver has no dedicated RPC for, such
// as focus (spec §4.6).
func (f *Frame) EvaluateExpressionOnSelector(expr, selector string, strict bool) (interface{}, error) {
	raw, err := f.QuerySelectorRPC("evaluateExpression", selector, strict, map[string]interface{}{
		"expression": expr,
	})
	if err != nil {
		return nil, err
	}
	var wire struct {
		Value evalserial.WireValue `json:"value"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse evaluateExpression response", err)
	}
	return evalserial.Parse(wire.Value)
}

// NewFrameForTest constructs a root-level Frame outside the factory/registry
// machinery, for unit tests in other packages (internal/locator) that need
// a Frame to send through without standing up a full Connection.
func NewFrameForTest(sender channelowner.Sender, guid string) *Frame {
	return newFrame(sender, guid, nil, nil).(*Frame)
}

// Goto navigates the frame to url.
func (f *Frame) Goto(url string) error {
	_, err := f.Send("goto", struct {
		URL string `json:"url"`
	}{URL: url})
	return err
}

// Content returns the frame's full HTML content.
func (f *Frame) Content() (string, error) {
	raw, err := f.Send("content", nil)
	if err != nil {
		return "", err
	}
	var res struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", errs.Wrap(errs.KindProtocolError, "parse content response", err)
	}
	return res.Value, nil
}

// Title returns the frame's document title.
func (f *Frame) Title() (string, error) {
	raw, err := f.Send("title", nil)
	if err != nil {
		return "", err
	}
	var res struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", errs.Wrap(errs.KindProtocolError, "parse title response", err)
	}
	return res.Value, nil
}
