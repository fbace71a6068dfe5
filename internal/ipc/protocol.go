// Package ipc implements the introspection socket external tools use to
// query and, where permitted, nudge a running compositor: list outputs,
// list seats, inspect the current selection, and force-cancel a stuck
// input grab.
package ipc

import (
	"encoding/json"
	"fmt"
)

// MessageType identifies the shape of a Message's Payload.
type MessageType string

const (
	MessageTypeListOutputs       MessageType = "list_outputs"
	MessageTypeOutputsResponse   MessageType = "outputs_response"
	MessageTypeListSeats         MessageType = "list_seats"
	MessageTypeSeatsResponse     MessageType = "seats_response"
	MessageTypeSelectionQuery    MessageType = "selection_query"
	MessageTypeSelectionResponse MessageType = "selection_response"
	MessageTypeCancelGrab        MessageType = "cancel_grab"
	MessageTypeAck               MessageType = "ack"
	MessageTypeError             MessageType = "error"
)

// Message is the envelope framed over the socket: a type tag plus a
// type-specific JSON payload.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// OutputInfo describes one output's placement and mode for introspection.
type OutputInfo struct {
	Name      string  `json:"name"`
	Width     int32   `json:"width"`
	Height    int32   `json:"height"`
	X         int32   `json:"x"`
	Y         int32   `json:"y"`
	Scale     float64 `json:"scale"`
	Transform string  `json:"transform"`
	Enabled   bool    `json:"enabled"`
}

// OutputsResponse carries the full output list.
type OutputsResponse struct {
	Outputs []OutputInfo `json:"outputs"`
}

// SeatInfo describes one seat's current focus and grab state.
type SeatInfo struct {
	Name          string `json:"name"`
	PointerFocus  string `json:"pointer_focus,omitempty"`
	KeyboardFocus string `json:"keyboard_focus,omitempty"`
	HasSelection  bool   `json:"has_selection"`
	DragActive    bool   `json:"drag_active"`
	PointerGrabbed  bool `json:"pointer_grabbed"`
	KeyboardGrabbed bool `json:"keyboard_grabbed"`
}

// SeatsResponse carries the full seat list.
type SeatsResponse struct {
	Seats []SeatInfo `json:"seats"`
}

// SelectionQuery asks for the current clipboard contents of one seat.
type SelectionQuery struct {
	SeatName string `json:"seat_name"`
}

// SelectionResponse describes the active selection source's offered
// mime types, if any.
type SelectionResponse struct {
	MimeTypes []string `json:"mime_types"`
	HasSource bool      `json:"has_source"`
}

// CancelGrabCommand force-ends the named seat's active pointer or
// keyboard grab. Gated behind console.allow_mutations.
type CancelGrabCommand struct {
	SeatName string `json:"seat_name"`
	Kind     string `json:"kind"` // "pointer" or "keyboard"
}

// AckResponse confirms a mutating command succeeded.
type AckResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse carries a human-readable failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func encodePayload(v interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return raw, nil
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// NewListOutputsMessage creates a request for the current output list.
func NewListOutputsMessage() (*Message, error) {
	return &Message{Type: MessageTypeListOutputs}, nil
}

// NewOutputsResponseMessage creates a response carrying outputs.
func NewOutputsResponseMessage(outputs []OutputInfo) (*Message, error) {
	payload, err := encodePayload(OutputsResponse{Outputs: outputs})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeOutputsResponse, Payload: payload}, nil
}

// NewListSeatsMessage creates a request for the current seat list.
func NewListSeatsMessage() (*Message, error) {
	return &Message{Type: MessageTypeListSeats}, nil
}

// NewSeatsResponseMessage creates a response carrying seats.
func NewSeatsResponseMessage(seats []SeatInfo) (*Message, error) {
	payload, err := encodePayload(SeatsResponse{Seats: seats})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeSeatsResponse, Payload: payload}, nil
}

// NewSelectionQueryMessage creates a request for a seat's selection.
func NewSelectionQueryMessage(seatName string) (*Message, error) {
	payload, err := encodePayload(SelectionQuery{SeatName: seatName})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeSelectionQuery, Payload: payload}, nil
}

// NewSelectionResponseMessage creates a response describing a selection.
func NewSelectionResponseMessage(mimeTypes []string, hasSource bool) (*Message, error) {
	payload, err := encodePayload(SelectionResponse{MimeTypes: mimeTypes, HasSource: hasSource})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeSelectionResponse, Payload: payload}, nil
}

// NewCancelGrabMessage creates a mutating request to force-end a grab.
func NewCancelGrabMessage(seatName, kind string) (*Message, error) {
	if kind != "pointer" && kind != "keyboard" {
		return nil, fmt.Errorf("invalid grab kind %q, must be pointer or keyboard", kind)
	}
	payload, err := encodePayload(CancelGrabCommand{SeatName: seatName, Kind: kind})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeCancelGrab, Payload: payload}, nil
}

// NewAckMessage creates a success acknowledgement.
func NewAckMessage() (*Message, error) {
	payload, err := encodePayload(AckResponse{OK: true})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeAck, Payload: payload}, nil
}

// NewErrorMessage creates a new error message.
func NewErrorMessage(errMsg string) (*Message, error) {
	payload, err := encodePayload(ErrorResponse{Error: errMsg})
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeError, Payload: payload}, nil
}

// GetOutputsResponse extracts an outputs response from msg.
func GetOutputsResponse(msg *Message) (*OutputsResponse, error) {
	if msg.Type != MessageTypeOutputsResponse {
		return nil, fmt.Errorf("message is not an outputs response")
	}
	var resp OutputsResponse
	if err := decodePayload(msg.Payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSeatsResponse extracts a seats response from msg.
func GetSeatsResponse(msg *Message) (*SeatsResponse, error) {
	if msg.Type != MessageTypeSeatsResponse {
		return nil, fmt.Errorf("message is not a seats response")
	}
	var resp SeatsResponse
	if err := decodePayload(msg.Payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSelectionQuery extracts a selection query from msg.
func GetSelectionQuery(msg *Message) (*SelectionQuery, error) {
	if msg.Type != MessageTypeSelectionQuery {
		return nil, fmt.Errorf("message is not a selection query")
	}
	var q SelectionQuery
	if err := decodePayload(msg.Payload, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// GetSelectionResponse extracts a selection response from msg.
func GetSelectionResponse(msg *Message) (*SelectionResponse, error) {
	if msg.Type != MessageTypeSelectionResponse {
		return nil, fmt.Errorf("message is not a selection response")
	}
	var resp SelectionResponse
	if err := decodePayload(msg.Payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCancelGrabCommand extracts a cancel-grab command from msg.
func GetCancelGrabCommand(msg *Message) (*CancelGrabCommand, error) {
	if msg.Type != MessageTypeCancelGrab {
		return nil, fmt.Errorf("message is not a cancel-grab command")
	}
	var cmd CancelGrabCommand
	if err := decodePayload(msg.Payload, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// GetErrorResponse extracts an error response from msg.
func GetErrorResponse(msg *Message) (*ErrorResponse, error) {
	if msg.Type != MessageTypeError {
		return nil, fmt.Errorf("message is not an error response")
	}
	var resp ErrorResponse
	if err := decodePayload(msg.Payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
