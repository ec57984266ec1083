package locator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/drivebridge/internal/objects"
)

// scriptedSender answers a fixed sequence of Send calls, repeating the last
// response once exhausted — enough to drive a poll loop through N queries.
type scriptedSender struct {
	responses  []json.RawMessage
	calls      int
	lastParams interface{}
}

func (s *scriptedSender) Send(guid, method string, params interface{}) (json.RawMessage, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	s.lastParams = params
	return s.responses[idx], nil
}

func newTestFrame(sender *scriptedSender) *objects.Frame {
	return objects.NewFrameForTest(sender, "frame@1")
}

func TestLocatorComposesSelectorSuffixes(t *testing.T) {
	frame := newTestFrame(&scriptedSender{})
	l := New(frame, "div")

	assert.Equal(t, "div >> nth=0", l.First().Selector())
	assert.Equal(t, "div >> nth=-1", l.Last().Selector())
	assert.Equal(t, "div >> nth=2", l.Nth(2).Selector())
	assert.Equal(t, "div >> span", l.Locator("span").Selector())
}

func TestExpectToBeVisibleSucceedsAfterRetry(t *testing.T) {
	sender := &scriptedSender{responses: []json.RawMessage{
		json.RawMessage(`{"value":false}`),
		json.RawMessage(`{"value":false}`),
		json.RawMessage(`{"value":true}`),
	}}
	frame := newTestFrame(sender)
	l := New(frame, "#x")

	err := Expect(l).Timeout(2 * time.Second).ToBeVisible()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sender.calls, 3)
}

func TestExpectToBeVisibleTimesOut(t *testing.T) {
	sender := &scriptedSender{responses: []json.RawMessage{json.RawMessage(`{"value":false}`)}}
	frame := newTestFrame(sender)
	l := New(frame, "#x")

	err := Expect(l).Timeout(150 * time.Millisecond).ToBeVisible()
	require.Error(t, err)
}

func TestQueryIsStrictUnlessNthDisambiguated(t *testing.T) {
	sender := &scriptedSender{responses: []json.RawMessage{json.RawMessage(`{}`)}}
	frame := newTestFrame(sender)

	require.NoError(t, New(frame, "div").Click(ActionOptions{}))
	params, ok := sender.lastParams.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, params["strict"])

	require.NoError(t, New(frame, "div").First().Click(ActionOptions{}))
	params, ok = sender.lastParams.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, params["strict"])
}

func TestClickThreadsActionOptionsIntoParams(t *testing.T) {
	sender := &scriptedSender{responses: []json.RawMessage{json.RawMessage(`{}`)}}
	frame := newTestFrame(sender)

	err := New(frame, "#x").Click(ActionOptions{
		Button:     "right",
		Modifiers:  []string{"Shift"},
		Position:   &Position{X: 1, Y: 2},
		Force:      true,
		ClickCount: 2,
		Timeout:    500 * time.Millisecond,
	})
	require.NoError(t, err)

	params, ok := sender.lastParams.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "right", params["button"])
	assert.Equal(t, []string{"Shift"}, params["modifiers"])
	assert.Equal(t, map[string]float64{"x": 1, "y": 2}, params["position"])
	assert.Equal(t, true, params["force"])
	assert.Equal(t, 2, params["clickCount"])
	assert.Equal(t, int64(500), params["timeout"])
}

func TestExpectNegationSwapsSuccessAndTimeout(t *testing.T) {
	sender := &scriptedSender{responses: []json.RawMessage{json.RawMessage(`{"value":false}`)}}
	frame := newTestFrame(sender)
	l := New(frame, "#x")

	err := Expect(l).Not().Timeout(200 * time.Millisecond).ToBeVisible()
	require.NoError(t, err)
}
