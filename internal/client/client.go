// Package client talks to a running plan server over HTTP and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/squadplan/internal/model"
	"github.com/freeeve/squadplan/pkg/squad"
)

// Event mirrors handler.WSEvent for client-side deserialization.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Client is an HTTP+WebSocket client for a single API client identity.
type Client struct {
	name     string
	baseURL  string
	token    string
	refresh  string
	wsConn   *websocket.Conn
	events   chan Event
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// New creates a client targeting the given server URL. Solves can take a
// while, so the HTTP timeout should exceed the server's solve timeout.
func New(name, baseURL string, timeout time.Duration) *Client {
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		events:  make(chan Event, 64),
		httpC:   &http.Client{Timeout: timeout},
	}
}

// Name returns the client name.
func (c *Client) Name() string { return c.name }

// SetToken uses a token provisioned out of band instead of logging in.
func (c *Client) SetToken(token string) { c.token = token }

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login obtains a token pair from the dev token endpoint.
func (c *Client) Login(ctx context.Context) error {
	var tokens tokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/token", map[string]string{"client": c.name}, &tokens); err != nil {
		return fmt.Errorf("dev login: %w", err)
	}
	c.token, c.refresh = tokens.AccessToken, tokens.RefreshToken
	log.Debug().Str("client", c.name).Msg("Client logged in")
	return nil
}

// Refresh exchanges the refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context) error {
	var tokens tokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": c.refresh}, &tokens); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	c.token, c.refresh = tokens.AccessToken, tokens.RefreshToken
	return nil
}

// CreatePlan submits a planning request and waits for the result.
func (c *Client) CreatePlan(ctx context.Context, req squad.Request) (*model.Plan, error) {
	var plan model.Plan
	if err := c.do(ctx, http.MethodPost, "/api/v1/plans", req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetPlan fetches one of this client's plans.
func (c *Client) GetPlan(ctx context.Context, id string) (*model.Plan, error) {
	var plan model.Plan
	if err := c.do(ctx, http.MethodGet, "/api/v1/plans/"+url.PathEscape(id), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListPlans returns this client's recent plans, newest first.
func (c *Client) ListPlans(ctx context.Context) ([]model.PlanSummary, error) {
	var plans []model.PlanSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// RankRoles ranks every role combination for req on the server.
func (c *Client) RankRoles(ctx context.Context, req squad.Request) ([]squad.Ranking, error) {
	var ranked []squad.Ranking
	if err := c.do(ctx, http.MethodPost, "/api/v1/roles/rank", req, &ranked); err != nil {
		return nil, err
	}
	return ranked, nil
}

// ConnectWS opens a WebSocket connection and starts listening for events.
func (c *Client) ConnectWS(ctx context.Context) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/ws?token=" + url.QueryEscape(c.token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	return nil
}

// Events returns the channel of incoming WebSocket events. It is closed when
// the connection ends.
func (c *Client) Events() <-chan Event { return c.events }

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closedWS
			c.mu.Unlock()
			if !closed {
				log.Debug().Err(err).Str("client", c.name).Msg("WS read error")
			}
			return
		}
		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}
		c.events <- event
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
