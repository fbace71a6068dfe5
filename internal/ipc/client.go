package ipc

import (
	"fmt"
	"net"
	"time"

	"github.com/wlcore/wlcore/internal/logger"
)

// Client handles IPC communication with a running compositor
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client using the configured socket path
func NewClient() (*Client, error) {
	return &Client{
		socketPath: GetSocketPath(),
		timeout:    5 * time.Second,
	}, nil
}

// NewClientWithTimeout creates a new IPC client with custom timeout
func NewClientWithTimeout(timeout time.Duration) (*Client, error) {
	client, err := NewClient()
	if err != nil {
		return nil, err
	}
	client.timeout = timeout
	return client, nil
}

// ListOutputs requests the current output list from the compositor
func (c *Client) ListOutputs() (*OutputsResponse, error) {
	msg, err := NewListOutputsMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to create list-outputs message: %w", err)
	}

	response, err := c.sendMessage(msg)
	if err != nil {
		return nil, err
	}

	switch response.Type {
	case MessageTypeOutputsResponse:
		return GetOutputsResponse(response)
	case MessageTypeError:
		errResp, _ := GetErrorResponse(response)
		return nil, fmt.Errorf("server error: %s", errResp.Error)
	default:
		return nil, fmt.Errorf("unexpected response type: %s", response.Type)
	}
}

// ListSeats requests the current seat list from the compositor
func (c *Client) ListSeats() (*SeatsResponse, error) {
	msg, err := NewListSeatsMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to create list-seats message: %w", err)
	}

	response, err := c.sendMessage(msg)
	if err != nil {
		return nil, err
	}

	switch response.Type {
	case MessageTypeSeatsResponse:
		return GetSeatsResponse(response)
	case MessageTypeError:
		errResp, _ := GetErrorResponse(response)
		return nil, fmt.Errorf("server error: %s", errResp.Error)
	default:
		return nil, fmt.Errorf("unexpected response type: %s", response.Type)
	}
}

// QuerySelection requests the current selection for the named seat
func (c *Client) QuerySelection(seatName string) (*SelectionResponse, error) {
	msg, err := NewSelectionQueryMessage(seatName)
	if err != nil {
		return nil, fmt.Errorf("failed to create selection query: %w", err)
	}

	response, err := c.sendMessage(msg)
	if err != nil {
		return nil, err
	}

	switch response.Type {
	case MessageTypeSelectionResponse:
		return GetSelectionResponse(response)
	case MessageTypeError:
		errResp, _ := GetErrorResponse(response)
		return nil, fmt.Errorf("server error: %s", errResp.Error)
	default:
		return nil, fmt.Errorf("unexpected response type: %s", response.Type)
	}
}

// CancelGrab asks the compositor to force-end a stuck grab. Rejected by
// the server unless console.allow_mutations is enabled.
func (c *Client) CancelGrab(seatName, kind string) error {
	msg, err := NewCancelGrabMessage(seatName, kind)
	if err != nil {
		return fmt.Errorf("failed to create cancel-grab command: %w", err)
	}

	response, err := c.sendMessage(msg)
	if err != nil {
		return err
	}

	if response.Type == MessageTypeError {
		errResp, _ := GetErrorResponse(response)
		if errResp != nil {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
	}

	return nil
}

// IsRunning checks if a compositor instance is currently listening on
// the introspection socket.
func (c *Client) IsRunning() bool {
	_, err := c.ListOutputs()
	return err == nil
}

// sendMessage sends a message and returns the response
func (c *Client) sendMessage(msg *Message) (*Message, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		if isConnectionRefused(err) {
			return nil, fmt.Errorf("wlcore is not running")
		}
		return nil, fmt.Errorf("failed to connect to wlcore: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Errorf("Failed to close IPC connection: %v", err)
		}
	}()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		logger.Warnf("Failed to set connection deadline: %v", err)
	}

	if err := writeMessage(conn, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	response, err := readMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return response, nil
}

// isConnectionRefused reports whether err is any dial failure
// (connection refused, missing socket file, ...)
func isConnectionRefused(err error) bool {
	if netErr, ok := err.(*net.OpError); ok {
		if netErr.Op == "dial" {
			return true
		}
	}
	return false
}

// Close closes the client connection
func (c *Client) Close() error {
	// Nothing to close as we create connections per request
	return nil
}

// IsWlcoreRunning checks if the wlcore compositor is running
func IsWlcoreRunning() bool {
	client, err := NewClient()
	if err != nil {
		return false
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Errorf("Failed to close IPC client: %v", err)
		}
	}()

	return client.IsRunning()
}
