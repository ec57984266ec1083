// locator.go — spec.md §4.6: a lazy, value-typed reference to elements,
// resolved fresh at every operation rather than held as a live handle.
// Grounded on the teacher's timeout/poll idiom in internal/bridge/timeout.go
// and cmd/dev-console/main_connection.go's waitForServer bounded loop,
// generalized from "wait for one condition" to "poll an arbitrary
// predicate with negation".
package locator

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/corvid-labs/drivebridge/internal/objects"
)

// Locator composes by suffixing its selector string; it holds no live
// handle and is safe to copy.
type Locator struct {
	frame    *objects.Frame
	selector string
}

// New builds the root locator for a frame's selector.
func New(frame *objects.Frame, selector string) Locator {
	return Locator{frame: frame, selector: selector}
}

// Selector returns the composed selector string this locator resolves to.
func (l Locator) Selector() string { return l.selector }

// Locator narrows to a descendant match within this locator's own match.
func (l Locator) Locator(sub string) Locator {
	return Locator{frame: l.frame, selector: l.selector + " >> " + sub}
}

// First narrows to the first match.
func (l Locator) First() Locator {
	return Locator{frame: l.frame, selector: l.selector + " >> nth=0"}
}

// Last narrows to the last match.
func (l Locator) Last() Locator {
	return Locator{frame: l.frame, selector: l.selector + " >> nth=-1"}
}

// Nth narrows to the index'th match.
func (l Locator) Nth(index int) Locator {
	return Locator{frame: l.frame, selector: l.selector + " >> nth=" + strconv.Itoa(index)}
}

// query issues one selector-scoped RPC, carrying strict:true unless a
// first()/last()/nth() modifier has already disambiguated the match (spec
// §4.6).
func (l Locator) query(method string, extra map[string]interface{}) (map[string]interface{}, error) {
	strict := !hasDisambiguatingSuffix(l.selector)
	raw, err := l.frame.QuerySelectorRPC(method, l.selector, strict, extra)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out, nil
}

// hasDisambiguatingSuffix reports whether selector's final " >> "-delimited
// segment is a first()/last()/nth() modifier, which already narrows the
// match to at most one element server-side.
func hasDisambiguatingSuffix(selector string) bool {
	segments := strings.Split(selector, " >> ")
	last := segments[len(segments)-1]
	return strings.HasPrefix(last, "nth=")
}

// Position is a point relative to the matched element's top-left corner,
// used by ActionOptions.Position to target somewhere other than the
// element's center.
type Position struct {
	X float64
	Y float64
}

// ActionOptions configures a pointer/keyboard action, per spec §4.6: "every
// action accepts a typed options value (modifiers, button, position,
// timeout, force, trial, delay, click_count)." The zero value requests the
// driver's own defaults for every field.
type ActionOptions struct {
	Modifiers  []string
	Button     string
	Position   *Position
	Timeout    time.Duration
	Force      bool
	Trial      bool
	Delay      time.Duration
	ClickCount int
}

// params renders o into the wire map query's extra argument expects,
// omitting any field left at its zero value so the driver applies its own
// default instead.
func (o ActionOptions) params() map[string]interface{} {
	out := make(map[string]interface{})
	if len(o.Modifiers) > 0 {
		out["modifiers"] = o.Modifiers
	}
	if o.Button != "" {
		out["button"] = o.Button
	}
	if o.Position != nil {
		out["position"] = map[string]float64{"x": o.Position.X, "y": o.Position.Y}
	}
	if o.Timeout > 0 {
		out["timeout"] = o.Timeout.Milliseconds()
	}
	if o.Force {
		out["force"] = true
	}
	if o.Trial {
		out["trial"] = true
	}
	if o.Delay > 0 {
		out["delay"] = o.Delay.Milliseconds()
	}
	if o.ClickCount > 0 {
		out["clickCount"] = o.ClickCount
	}
	return out
}

// Click performs a click action on the locator's single match.
func (l Locator) Click(opts ActionOptions) error {
	_, err := l.query("click", opts.params())
	return err
}

// Fill sets the matched element's value.
func (l Locator) Fill(value string, opts ActionOptions) error {
	params := opts.params()
	params["value"] = value
	_, err := l.query("fill", params)
	return err
}

// Check checks a checkbox/radio input; a no-op if already checked (spec
// §4.6 edge case).
func (l Locator) Check(opts ActionOptions) error {
	_, err := l.query("check", opts.params())
	return err
}

// Press sends a single named key to the matched element.
func (l Locator) Press(key string, opts ActionOptions) error {
	params := opts.params()
	params["key"] = key
	_, err := l.query("press", params)
	return err
}

// Hover moves the pointer over the matched element.
func (l Locator) Hover(opts ActionOptions) error {
	_, err := l.query("hover", opts.params())
	return err
}

// SelectOption selects one or more option values in a <select>.
func (l Locator) SelectOption(values []string, opts ActionOptions) error {
	params := opts.params()
	params["values"] = values
	_, err := l.query("selectOption", params)
	return err
}

// SetInputFiles sets the file list of a file input.
func (l Locator) SetInputFiles(paths []string, opts ActionOptions) error {
	params := opts.params()
	params["paths"] = paths
	_, err := l.query("setInputFiles", params)
	return err
}

// TextContent returns the matched element's text content.
func (l Locator) TextContent() (string, error) {
	out, err := l.query("textContent", nil)
	if err != nil {
		return "", err
	}
	return stringField(out, "value"), nil
}

// InnerText returns the matched element's rendered inner text.
func (l Locator) InnerText() (string, error) {
	out, err := l.query("innerText", nil)
	if err != nil {
		return "", err
	}
	return stringField(out, "value"), nil
}

// InputValue returns the matched form control's current value.
func (l Locator) InputValue() (string, error) {
	out, err := l.query("inputValue", nil)
	if err != nil {
		return "", err
	}
	return stringField(out, "value"), nil
}

// IsVisible reports whether the matched element is currently visible.
func (l Locator) IsVisible() (bool, error) {
	out, err := l.query("isVisible", nil)
	if err != nil {
		return false, err
	}
	return boolField(out, "value"), nil
}

// IsChecked reports whether the matched checkbox/radio is checked.
func (l Locator) IsChecked() (bool, error) {
	out, err := l.query("isChecked", nil)
	if err != nil {
		return false, err
	}
	return boolField(out, "value"), nil
}

// IsEnabled reports whether the matched element accepts input.
func (l Locator) IsEnabled() (bool, error) {
	out, err := l.query("isEnabled", nil)
	if err != nil {
		return false, err
	}
	return boolField(out, "value"), nil
}

// IsFocused reports whether the matched element has document focus. The
// driver exposes no dedicated RPC for this (spec §4.6), so it is answered
// by evaluating document.activeElement identity inside the page.
func (l Locator) IsFocused() (bool, error) {
	result, err := l.frame.EvaluateExpressionOnSelector(
		"(el) => document.activeElement === el", l.selector, !hasDisambiguatingSuffix(l.selector),
	)
	if err != nil {
		return false, err
	}
	b, _ := result.(bool)
	return b, nil
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]interface{}, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}
