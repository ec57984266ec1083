// message.go — the untagged wire message of spec.md §3/§6: either a
// Response ({id, result?, error?}) or an Event ({guid, method, params?}).
package transport

import "encoding/json"

// WireError is the error object nested in a Response (§6).
type WireError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Message is parsed from one frame's JSON payload. A Response carries a
// non-zero ID; an Event carries a non-empty Method. Exactly one of those is
// true for any well-formed frame (§6).
type Message struct {
	ID     uint32          `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *WireError      `json:"error,omitempty"`

	GUID   string          `json:"guid,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	hasID bool
}

// UnmarshalJSON detects whether "id" was present so IsResponse can
// distinguish a Response with id 0 (never issued by this module's id
// allocator, which starts at 1, but still distinguishable) from an Event.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = Message(a)

	var probe struct {
		ID *uint32 `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	m.hasID = probe.ID != nil
	return nil
}

// IsResponse reports whether this Message is a Response rather than an
// Event, per the "presence of id" rule in §4.2 step 3.
func (m *Message) IsResponse() bool { return m.hasID }

// Request is the outgoing request record of §3: {id, guid, method, params}.
type Request struct {
	ID     uint32      `json:"id"`
	GUID   string      `json:"guid"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}
