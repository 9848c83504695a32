// Package message defines the wire protocol spoken between foreground
// clients and the background daemon. Every exchange is a JSON frame: a
// request carrying a typed Message, a response carrying Success plus data
// or an error string, or a server-pushed event.
package message

import (
	"encoding/json"
	"fmt"
)

// Type tags a Message. The dispatcher matches exhaustively on these;
// anything else is answered with an unknown-type error response.
type Type string

const (
	TypeGetTrafficData      Type = "GET_TRAFFIC_DATA"
	TypeGetAnalyticsData    Type = "GET_ANALYTICS_DATA"
	TypeGetRouteSuggestions Type = "GET_ROUTE_SUGGESTIONS"
	TypeUpdateSettings      Type = "UPDATE_SETTINGS"
	TypeRefreshData         Type = "REFRESH_DATA"
	TypePageVisit           Type = "PAGE_VISIT"
)

// Valid reports whether t is a known message type.
func (t Type) Valid() bool {
	switch t {
	case TypeGetTrafficData, TypeGetAnalyticsData, TypeGetRouteSuggestions,
		TypeUpdateSettings, TypeRefreshData, TypePageVisit:
		return true
	}
	return false
}

// Message is a single request sent to the daemon. Payload shape depends on
// Type; see the *Payload structs below.
type Message struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers exactly one Message. At most one response is ever
// produced per request; there is no further acknowledgement.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Ok builds a successful response carrying data (which may be nil for
// plain acknowledgements).
func Ok(data json.RawMessage) Response {
	return Response{Success: true, Data: data}
}

// Fail builds an error response.
func Fail(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Event is a server-pushed notification, mirrored onto the client's local
// event bus by name.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data,omitempty"`
}

// FrameKind discriminates the three frame variants on the wire.
type FrameKind string

const (
	FrameRequest  FrameKind = "request"
	FrameResponse FrameKind = "response"
	FrameEvent    FrameKind = "event"
)

// Frame is the top-level unit written to the channel.
type Frame struct {
	Kind FrameKind `json:"kind"`

	// Seq pairs a response with its request: the sender stamps each
	// request and the daemon echoes the value on the response frame.
	// Event frames carry no seq.
	Seq uint64 `json:"seq,omitempty"`

	Message  *Message  `json:"message,omitempty"`
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
}

// Validate checks that the frame's kind matches the populated field.
func (f *Frame) Validate() error {
	switch f.Kind {
	case FrameRequest:
		if f.Message == nil {
			return fmt.Errorf("request frame without message")
		}
	case FrameResponse:
		if f.Response == nil {
			return fmt.Errorf("response frame without response")
		}
	case FrameEvent:
		if f.Event == nil {
			return fmt.Errorf("event frame without event")
		}
	default:
		return fmt.Errorf("unknown frame kind %q", f.Kind)
	}
	return nil
}

// ParamsPayload carries the generic request parameters for the data
// fetch message types.
type ParamsPayload struct {
	Params map[string]string `json:"params"`
}

// RouteParams is the parameter shape for GET_ROUTE_SUGGESTIONS.
type RouteParams struct {
	From          string `json:"from"`
	To            string `json:"to"`
	DepartureTime string `json:"departureTime,omitempty"`
}

// VisitPayload carries a PAGE_VISIT notification.
type VisitPayload struct {
	Data VisitData `json:"data"`
}

// VisitData is a single recorded page visit.
type VisitData struct {
	URL       string `json:"url"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// MustMarshal marshals v or panics. Reserved for payload structs whose
// marshalling cannot fail.
func MustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("message: marshal %T: %v", v, err))
	}
	return data
}
