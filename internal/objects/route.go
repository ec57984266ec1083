// route.go — spec.md §4.5: Route is the channel-owner a page.route handler
// acts on — abort, continue (with overrides), or fulfill a synthetic
// response.
package objects

import (
	"encoding/base64"
	"encoding/json"

	"github.com/corvid-labs/drivebridge/internal/channelowner"
	"github.com/corvid-labs/drivebridge/internal/errs"
)

// Route represents one intercepted network request awaiting a disposition.
type Route struct {
	channelowner.Base

	requestGUID string
}

type routeInitializer struct {
	Request struct {
		GUID string `json:"guid"`
	} `json:"request"`
}

func newRoute(sender channelowner.Sender, guid string, parent channelowner.Owner, initializer json.RawMessage) channelowner.Owner {
	var init routeInitializer
	_ = json.Unmarshal(initializer, &init)
	return &Route{
		Base:        channelowner.NewBase(sender, guid, "Route", parent, initializer),
		requestGUID: init.Request.GUID,
	}
}

// RequestGUID returns the guid of the Request this route is intercepting,
// for callers that want to resolve it through the connection's registry.
func (r *Route) RequestGUID() string {
	return r.requestGUID
}

// Abort fails the request, optionally with a named error code (e.g.
// "failed", "aborted", "timedout"). An empty code sends "failed".
func (r *Route) Abort(errorCode string) error {
	if errorCode == "" {
		errorCode = "failed"
	}
	_, err := r.Send("abort", struct {
		ErrorCode string `json:"errorCode"`
	}{ErrorCode: errorCode})
	return err
}

// ContinueOverrides lets a handler rewrite the request before it proceeds.
type ContinueOverrides struct {
	URL      string        `json:"url,omitempty"`
	Method   string        `json:"method,omitempty"`
	Headers  []HeaderEntry `json:"headers,omitempty"`
	PostData []byte        `json:"-"`
}

// Continue lets the request proceed, applying any overrides.
func (r *Route) Continue(overrides ContinueOverrides) error {
	params := struct {
		URL              string        `json:"url,omitempty"`
		Method           string        `json:"method,omitempty"`
		Headers          []HeaderEntry `json:"headers,omitempty"`
		PostData         string        `json:"postData,omitempty"`
		IsBase64PostData bool          `json:"isBase64PostData,omitempty"`
	}{
		URL:     overrides.URL,
		Method:  overrides.Method,
		Headers: overrides.Headers,
	}
	if overrides.PostData != nil {
		params.PostData = base64.StdEncoding.EncodeToString(overrides.PostData)
		params.IsBase64PostData = true
	}
	_, err := r.Send("continue", params)
	return err
}

// FulfillResponse is the synthetic response a handler supplies to Fulfill.
type FulfillResponse struct {
	Status      int
	Headers     []HeaderEntry
	ContentType string
	Body        []byte
}

// Fulfill completes the request with a synthetic response, base64-encoding
// the body for the wire per spec §4.5.
func (r *Route) Fulfill(resp FulfillResponse) error {
	if resp.Status == 0 {
		resp.Status = 200
	}
	headers := resp.Headers
	if resp.ContentType != "" {
		headers = append(headers, HeaderEntry{Name: "content-type", Value: resp.ContentType})
	}
	_, err := r.Send("fulfill", struct {
		Status     int           `json:"status"`
		Headers    []HeaderEntry `json:"headers,omitempty"`
		Body       string        `json:"body"`
		IsBase64   bool          `json:"isBase64"`
	}{
		Status:   resp.Status,
		Headers:  headers,
		Body:     base64.StdEncoding.EncodeToString(resp.Body),
		IsBase64: true,
	})
	if err != nil {
		return errs.Wrap(errs.KindProtocolError, "fulfill route", err)
	}
	return nil
}
