// Package api talks to the chat server's REST endpoints: accounts and
// chatroom listing/creation. It holds no session state of its own.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Chatroom is one room as listed by the server.
type Chatroom struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UserCount   int    `json:"userCount"`
	CreatedAt   string `json:"createdAt"`
	CreatorID   string `json:"creatorId"`
}

// Session is the result of a successful login.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type createRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client is a REST client bound to one server.
type Client struct {
	http  *resty.Client
	token string
	// rawToken sends the token as the whole Authorization header, without a scheme.
	rawToken bool
	log      *zerolog.Logger
}

// New builds a client for baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetError(&errorResponse{})

	return &Client{http: rc, log: logger}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// WithRawToken returns a copy that sends the token without the Bearer scheme,
// for servers that compare the Authorization header verbatim.
func (c *Client) WithRawToken(raw bool) *Client {
	cp := *c
	cp.rawToken = raw
	return &cp
}

// Register creates an account and returns the new user id.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var out registerResponse
	resp, err := c.request(ctx).
		SetBody(credentials{Username: username, Password: password}).
		SetResult(&out).
		Post("/api/register")
	if err := c.check(resp, err, "register"); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var out Session
	resp, err := c.request(ctx).
		SetBody(credentials{Username: username, Password: password}).
		SetResult(&out).
		Post("/api/login")
	if err := c.check(resp, err, "login"); err != nil {
		return Session{}, err
	}
	if out.Username == "" {
		out.Username = username
	}
	return out, nil
}

// ListRooms returns every public room.
func (c *Client) ListRooms(ctx context.Context) ([]Chatroom, error) {
	return c.rooms(ctx, "/api/chatrooms", "list rooms")
}

// MyRooms returns rooms created by the authenticated user.
func (c *Client) MyRooms(ctx context.Context) ([]Chatroom, error) {
	return c.rooms(ctx, "/api/chatrooms/my", "list my rooms")
}

// CreateRoom creates a room owned by the authenticated user.
func (c *Client) CreateRoom(ctx context.Context, name, description string) (Chatroom, error) {
	var out Chatroom
	resp, err := c.request(ctx).
		SetBody(createRoomRequest{Name: name, Description: description}).
		SetResult(&out).
		Post("/api/chatrooms/create")
	if err := c.check(resp, err, "create room"); err != nil {
		return Chatroom{}, err
	}
	return out, nil
}

func (c *Client) rooms(ctx context.Context, path, op string) ([]Chatroom, error) {
	var out []Chatroom
	resp, err := c.request(ctx).SetResult(&out).Get(path)
	if err := c.check(resp, err, op); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Chatroom{}
	}
	return out, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	switch {
	case c.token == "":
	case c.rawToken:
		req.SetHeader("Authorization", c.token)
	default:
		req.SetAuthToken(c.token)
	}
	return req
}

// check turns transport failures and non-2xx answers into errors.
func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.log.Debug().
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL).
		Int("status", resp.StatusCode()).
		Dur("took", resp.Time()).
		Msg("api request")

	if resp.IsSuccess() {
		return nil
	}

	apiErr := &Error{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorResponse); ok && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(apiErr.Status)
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}
