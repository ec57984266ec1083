// request.go — spec.md §4.4: Request/Response hold structural metadata from
// their initializers; their public operations are thin wrappers over RPC
// methods sent through the owning guid.
package objects

import (
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
)

// Request describes one network request observed or intercepted by the
// driver.
type Request struct {
	channelowner.Base

	URL      string
	Method   string
	Headers  []HeaderEntry
	PostData string
}

// HeaderEntry is one name/value header pair, as carried on the wire.
type HeaderEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type requestInitializer struct {
	URL      string        `json:"url"`
	Method   string        `json:"method"`
	Headers  []HeaderEntry `json:"headers"`
	PostData string        `json:"postData"`
}

func newRequest(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init requestInitializer
	_ = json.Unmarshal(initializer, &init)
	return &Request{
		Base:     channelowner.NewBase(sender, guid, "Request", parent, initializer),
		URL:      init.URL,
		Method:   init.Method,
		Headers:  init.Headers,
		PostData: init.PostData,
	}
}

// ResponseGUID awaits completion of the request and returns the guid of its
// Response, or "" if the request never produced one (e.g. it failed).
// Callers resolve the guid through the connection's registry.
func (r *Request) ResponseGUID() (string, error) {
	raw, err := r.Send("response", nil)
	if err != nil {
		return "", err
	}
	var res struct {
		Response *struct {
			GUID string `json:"guid"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", errs.Wrap(errs.KindProtocolError, "parse request.response response", err)
	}
	if res.Response == nil {
		return "", nil
	}
	return res.Response.GUID, nil
}

// Response is the server's answer to a Request.
type Response struct {
	channelowner.Base

	URL     string
	Status  int
	Headers []HeaderEntry
}

type responseInitializer struct {
	URL     string        `json:"url"`
	Status  int           `json:"status"`
	Headers []HeaderEntry `json:"headers"`
}

func newResponse(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init responseInitializer
	_ = json.Unmarshal(initializer, &init)
	return &Response{
		Base:    channelowner.NewBase(sender, guid, "Response", parent, initializer),
		URL:     init.URL,
		Status:  init.Status,
		Headers: init.Headers,
	}
}

// Body returns the response body bytes, decoded from the driver's base64
// wire form.
func (r *Response) Body() ([]byte, error) {
	raw, err := r.Send("body", nil)
	if err != nil {
		return nil, err
	}
	var res struct {
		Binary string `json:"binary"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, errs.Wrap(errs.KindProtocolError, "parse response.body response", err)
	}
	return decodeBase64(res.Binary)
}
