// Package cdp implements a minimal Chrome DevTools Protocol client: tab
// discovery over the HTTP debug endpoint, and a single-actor-goroutine
// JSON-RPC transport over the page's WebSocket debugger URL.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mrdja026/pcagent/internal/action"
)

// TabInfo is one entry from the /json tab list.
type TabInfo struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	WSURL  string `json:"webSocketDebuggerUrl"`
}

// DefaultTimeout bounds every round-trip CDP call; the spec calls out
// per-call timeouts as a gap in the original's send loop.
const DefaultTimeout = 10 * time.Second

type frame struct {
	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *frameError     `json:"error,omitempty"`
}

type frameError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type pendingCall struct {
	result chan json.RawMessage
	err    chan error
}

// Conn is a single CDP WebSocket connection driven by one dispatch
// goroutine. All command sends go through the actor's request channel so
// no caller ever touches the socket directly, replacing the teacher's
// double-mutex (one for the write half, one for the command id counter)
// with a single owning goroutine.
type Conn struct {
	ws      *websocket.Conn
	nextID  uint64
	send    chan sendReq
	closed  chan struct{}
}

type sendReq struct {
	method string
	params interface{}
	reply  chan callResult
}

type callResult struct {
	result json.RawMessage
	err    error
}

// ListTabs fetches the debug target list from host:port and returns every
// target in it, whatever its type.
func ListTabs(ctx context.Context, addr string) ([]TabInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/json", nil)
	if err != nil {
		return nil, action.Transportf("ListTabs", "build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, action.Transportf("ListTabs", "GET /json: %w", err)
	}
	defer resp.Body.Close()

	var tabs []TabInfo
	if err := json.NewDecoder(resp.Body).Decode(&tabs); err != nil {
		return nil, action.Transportf("ListTabs", "decode /json: %w", err)
	}
	return tabs, nil
}

// FindPageTarget prefers the first "page"-typed tab, falling back to the
// first tab of any type if none is a page (mirrors the teacher's
// findPageTarget in browser.go).
func FindPageTarget(tabs []TabInfo) (TabInfo, error) {
	for _, t := range tabs {
		if t.Type == "page" {
			return t, nil
		}
	}
	if len(tabs) > 0 {
		return tabs[0], nil
	}
	return TabInfo{}, action.Targetf("FindPageTarget", "no debug targets available")
}

// Dial opens the actor goroutine against a page's webSocketDebuggerUrl.
func Dial(ctx context.Context, wsURL string) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: DefaultTimeout}
	ws, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, action.Transportf("Dial", "websocket dial %s: %w", wsURL, err)
	}

	c := &Conn{
		ws:     ws,
		send:   make(chan sendReq),
		closed: make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// run is the single goroutine that owns the socket. It multiplexes
// outgoing command frames against incoming response frames keyed by id,
// so concurrent callers never race on the connection.
func (c *Conn) run() {
	pending := make(map[uint64]chan callResult)
	incoming := make(chan frame)
	readErr := make(chan error, 1)

	go func() {
		for {
			var f frame
			if err := c.ws.ReadJSON(&f); err != nil {
				readErr <- err
				close(incoming)
				return
			}
			incoming <- f
		}
	}()

	for {
		select {
		case req, ok := <-c.send:
			if !ok {
				c.ws.Close()
				return
			}
			id := atomic.AddUint64(&c.nextID, 1)
			raw, err := json.Marshal(req.params)
			if err != nil {
				req.reply <- callResult{err: action.Schemaf("send", "marshal params: %w", err)}
				continue
			}
			pending[id] = req.reply
			if err := c.ws.WriteJSON(frame{ID: id, Method: req.method, Params: raw}); err != nil {
				delete(pending, id)
				req.reply <- callResult{err: action.Transportf("send", "write frame: %w", err)}
			}
		case f, ok := <-incoming:
			if !ok {
				err := <-readErr
				for _, ch := range pending {
					ch <- callResult{err: action.Transportf("run", "connection closed: %v", err)}
				}
				close(c.closed)
				return
			}
			if f.ID == 0 {
				continue // event/notification frame, not a reply
			}
			ch, found := pending[f.ID]
			if !found {
				continue
			}
			delete(pending, f.ID)
			if f.Error != nil {
				ch <- callResult{err: action.NewError(action.KindRemote, "run", fmt.Errorf("%s (code %d)", f.Error.Message, f.Error.Code))}
				continue
			}
			ch <- callResult{result: f.Result}
		}
	}
}

// Call sends a CDP command and waits for its matching reply, ctx
// cancellation or DefaultTimeout, whichever comes first.
func (c *Conn) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	reply := make(chan callResult, 1)
	select {
	case c.send <- sendReq{method: method, params: params, reply: reply}:
	case <-ctx.Done():
		return action.Transportf(method, "send: %w", ctx.Err())
	case <-c.closed:
		return action.Transportf(method, "connection closed")
	}

	select {
	case res := <-reply:
		if res.err != nil {
			return res.err
		}
		if out == nil || len(res.result) == 0 {
			return nil
		}
		if err := json.Unmarshal(res.result, out); err != nil {
			return action.Schemaf(method, "unmarshal result: %w", err)
		}
		return nil
	case <-ctx.Done():
		return action.Transportf(method, "await reply: %w", ctx.Err())
	case <-c.closed:
		return action.Transportf(method, "connection closed mid-call")
	}
}

// CallTimeout is Call bounded by DefaultTimeout, for callers that don't
// already carry a deadline.
func (c *Conn) CallTimeout(method string, params interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()
	return c.Call(ctx, method, params, out)
}

func (c *Conn) Close() error {
	close(c.send)
	return c.ws.Close()
}
