// Package client talks to the item store API. It holds no task state;
// every method is one request/response exchange carrying the session
// cookie.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-sync/internal/model"
)

// SessionCookie matches the cookie the item store issues on login.
const SessionCookie = "session"

type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
	newKey func() string
}

type Option func(*Client)

// WithHTTPClient replaces the transport. A cookie jar is added when the
// given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithIdempotencyKeys overrides how Create generates Idempotency-Key values.
func WithIdempotencyKeys(gen func() string) Option {
	return func(c *Client) { c.newKey = gen }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{},
		logger: zap.NewNop(),
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Session returns the current session cookie, or nil.
func (c *Client) Session() *http.Cookie {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == SessionCookie {
			return ck
		}
	}
	return nil
}

// SetSession installs a previously obtained session cookie.
func (c *Client) SetSession(value string) {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: SessionCookie, Value: value, Path: "/"}})
}

func (c *Client) clearSession() {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1}})
}

type addBody struct {
	Todo    string          `json:"todo"`
	DueDate model.Timestamp `json:"due_date"`
	Label   model.Label     `json:"label"`
}

type updateBody struct {
	ID       int64           `json:"id"`
	WhatToDo string          `json:"what_to_do"`
	DueDate  model.Timestamp `json:"due_date"`
	Label    model.Label     `json:"label"`
	Status   model.Status    `json:"status"`
}

type idBody struct {
	ID int64 `json:"id"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, "list", http.MethodGet, "/api/items", nil, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Create adds a task. The description is sent as given; callers validate
// and default it.
func (c *Client) Create(ctx context.Context, in model.NewTask) error {
	header := http.Header{"Idempotency-Key": []string{c.newKey()}}
	return c.do(ctx, "create", http.MethodPost, "/api/add", header, addBody{
		Todo:    in.Description,
		DueDate: in.DueDate,
		Label:   in.Label,
	}, nil)
}

// Update replaces the four mutable fields of the task d.ID.
func (c *Client) Update(ctx context.Context, d model.Draft) error {
	return c.do(ctx, "update", http.MethodPut, "/api/update", nil, updateBody{
		ID:       d.ID,
		WhatToDo: d.WhatToDo,
		DueDate:  d.DueDate,
		Label:    d.Label,
		Status:   d.Status,
	}, nil)
}

func (c *Client) SetDone(ctx context.Context, id int64) error {
	return c.do(ctx, "mark", http.MethodPut, "/api/mark", nil, idBody{ID: id}, nil)
}

// Delete removes a task. A task that is already gone counts as deleted.
func (c *Client) Delete(ctx context.Context, id int64) error {
	err := c.do(ctx, "delete", http.MethodDelete, "/api/delete", nil, idBody{ID: id}, nil)
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("delete of missing task tolerated", zap.Int64("task_id", id))
		return nil
	}
	return err
}

func (c *Client) Upcoming(ctx context.Context) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := c.do(ctx, "upcoming", http.MethodGet, "/api/upcoming-tasks", nil, nil, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, "register", http.MethodPost, "/api/register", nil, credentials{username, password}, nil)
}

// Login stores the session cookie returned by the item store.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if err := c.do(ctx, "login", http.MethodPost, "/api/login", nil, credentials{username, password}, nil); err != nil {
		return err
	}
	if c.Session() == nil {
		return fmt.Errorf("login: no session cookie in response")
	}
	return nil
}

// Logout asks the store to end the session and always drops the local
// cookie. The returned error is informational.
func (c *Client) Logout(ctx context.Context) error {
	defer c.clearSession()
	return c.do(ctx, "logout", http.MethodPost, "/api/logout", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, header http.Header, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rdr)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{Op: op, StatusCode: resp.StatusCode, Message: readMessage(resp)}
		c.logger.Debug("request failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", reqErr.Message),
		)
		return reqErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// readMessage prefers the store's {"error": "..."} body over the status text.
func readMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return http.StatusText(resp.StatusCode)
}
