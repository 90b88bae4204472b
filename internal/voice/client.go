package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

// Client speaks the vendor's session protocol: a REST call opens the call
// and returns a monitor URL, and a websocket on that URL delivers the
// lifecycle event stream. Control messages (say, end-call) go out over the
// same websocket.
type Client struct {
	baseURL   string
	publicKey string
	http      *http.Client
	logger    log.Logger

	events chan Event

	mu     sync.Mutex
	callID string
	ws     *websocket.Conn
}

var _ Backend = (*Client)(nil)

// NewClient creates a vendor-backed voice client.
func NewClient(baseURL, publicKey string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Client{
		baseURL:   baseURL,
		publicKey: publicKey,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger.WithName("voice-client"),
		events:    make(chan Event, 32),
	}
}

type startRequest struct {
	AssistantID string            `json:"assistantId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type startResponse struct {
	ID         string `json:"id"`
	MonitorURL string `json:"monitorUrl"`
}

func (c *Client) Start(ctx context.Context, assistantID string, metadata map[string]string) error {
	body, err := json.Marshal(startRequest{AssistantID: assistantID, Metadata: metadata})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call/web", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.publicKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("voice: start request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("voice: start rejected with status %d: %s", resp.StatusCode, msg)
	}

	var sr startResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("voice: bad start response: %w", err)
	}

	// The call exists on the vendor side from here on. If supervision was
	// lost while the start was in flight, hang it up instead of leaving
	// it live with nobody listening.
	if ctx.Err() != nil {
		c.terminate(sr)
		return fmt.Errorf("voice: start cancelled: %w", ctx.Err())
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, sr.MonitorURL, nil)
	if err != nil {
		c.terminate(sr)
		return fmt.Errorf("voice: monitor dial failed: %w", err)
	}

	c.mu.Lock()
	c.callID = sr.ID
	c.ws = ws
	c.mu.Unlock()

	c.logger.Info("Session start requested", "callID", sr.ID)
	go c.readLoop(ws)
	return nil
}

func (c *Client) Say(ctx context.Context, text string, endCallAfterSpoken bool) error {
	return c.send(map[string]any{
		"type":               "say",
		"message":            text,
		"endCallAfterSpoken": endCallAfterSpoken,
	})
}

func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.callID = ""
	c.mu.Unlock()

	if ws == nil {
		return nil
	}
	// Best effort: the vendor ends the call on stream close anyway.
	_ = ws.WriteJSON(map[string]any{"type": "end-call"})
	return ws.Close()
}

func (c *Client) Events() <-chan Event {
	return c.events
}

// terminate hangs up a call that was created but never adopted. The
// monitor websocket is the only control channel, so dial it just to send
// the end-call.
func (c *Client) terminate(sr startResponse) {
	dialCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, _, err := websocket.DefaultDialer.DialContext(dialCtx, sr.MonitorURL, nil)
	if err != nil {
		c.logger.Error(err, "Failed to hang up orphaned call", "callID", sr.ID)
		return
	}
	_ = ws.WriteJSON(map[string]any{"type": "end-call"})
	_ = ws.Close()
	c.logger.Info("Orphaned call hung up", "callID", sr.ID)
}

func (c *Client) send(msg map[string]any) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return fmt.Errorf("voice: no open session")
	}
	return ws.WriteJSON(msg)
}

// wireEvent is the vendor's event envelope.
type wireEvent struct {
	Type   string  `json:"type"`
	Error  string  `json:"error,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			open := c.ws == ws
			if open {
				c.ws = nil
				c.callID = ""
			}
			c.mu.Unlock()

			// A close after Stop is expected; anything else ends the call.
			if open {
				c.emit(Event{Type: EventCallEnded})
			}
			return
		}

		var we wireEvent
		if err := json.Unmarshal(data, &we); err != nil {
			c.logger.Warn("Undecodable event from backend", "err", err)
			continue
		}

		switch we.Type {
		case "call-start", "call-started":
			c.emit(Event{Type: EventCallStarted})
		case "call-end", "call-ended":
			c.emit(Event{Type: EventCallEnded})
		case "error":
			c.emit(Event{Type: EventError, Err: fmt.Errorf("voice backend: %s", we.Error)})
		case "speech-start", "speech-started":
			c.emit(Event{Type: EventSpeechStarted})
		case "speech-end", "speech-ended":
			c.emit(Event{Type: EventSpeechEnded})
		case "volume-level":
			c.emit(Event{Type: EventVolumeLevel, Volume: we.Volume})
		default:
			c.emit(Event{Type: EventMessage, Payload: json.RawMessage(data)})
		}
	}
}

func (c *Client) emit(e Event) {
	select {
	case c.events <- e:
	default:
		c.logger.Warn("Event buffer full, dropping", "type", e.Type)
	}
}
