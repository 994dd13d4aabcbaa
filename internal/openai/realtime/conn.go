// Package realtime is a websocket client for the OpenAI Realtime API,
// attached to a SIP call that has already been accepted.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultURL = "wss://api.openai.com/v1/realtime"

	defaultDialTimeout = 15 * time.Second
	closeWriteTimeout  = 2 * time.Second
)

var ErrClosed = errors.New("realtime connection is closed")

// Conn is one realtime session. Writes are serialized; reads must come from
// a single goroutine.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

// Dial opens the realtime event stream for callID.
func Dial(ctx context.Context, endpoint, callID, apiKey string) (*Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid realtime url: %w", err)
	}
	q := u.Query()
	q.Set("call_id", callID)
	u.RawQuery = q.Encode()

	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+apiKey)

	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, defaultDialTimeout)
		defer cancel()
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes a client event as JSON.
func (c *Conn) Send(v any) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// ReadEvent blocks for the next server event. Errors wrapping
// ErrMalformedEvent are per-frame; any other error ends the session, and a
// normal close from the server is reported as ErrClosed.
func (c *Conn) ReadEvent() (Event, error) {
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, ErrClosed
			}
			return nil, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return DecodeEvent(data)
	}
}

// Close sends a close frame and tears down the connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeWriteTimeout))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
