package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/wherewego/internal/apperr"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
)

// APIError ответ API с result=error
type APIError struct {
	Status  int
	Kind    apperr.Kind
	Field   string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: %s (status %d)", e.Message, e.Status)
}

// Unwrap связывает ответ с категорией apperr, чтобы работал errors.Is
func (e *APIError) Unwrap() error {
	return &apperr.Error{Kind: e.Kind}
}

type envelope[T any] struct {
	Result  string      `json:"result"`
	Message string      `json:"message"`
	Data    T           `json:"data"`
	Kind    apperr.Kind `json:"kind"`
	Field   string      `json:"field"`
}

// Client клиент REST API с cookie-сессией
type Client struct {
	base     *url.URL
	http     *http.Client
	language string
}

type Option func(*Client)

// WithHTTPClient подменяет http.Client; cookie jar ставится, если его нет
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLanguage задаёт Accept-Language для сообщений об ошибках
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{base: base, http: &http.Client{Timeout: 15 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Login открывает сессию; cookie сохраняется в jar клиента
func (c *Client) Login(ctx context.Context, identifier, password string) (*model.Student, error) {
	body := map[string]string{"identifier": identifier, "password": password}
	return call[*model.Student](ctx, c, http.MethodPost, "/api/login", nil, body)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, "/api/logout", nil, nil)
	return err
}

// SearchStudents страница GET /api/student/search
func (c *Client) SearchStudents(ctx context.Context, q search.Query) ([]model.StudentBrief, error) {
	return call[[]model.StudentBrief](ctx, c, http.MethodGet, "/api/student/search", pageParams(q), nil)
}

// SearchSchools страница GET /api/school/search
func (c *Client) SearchSchools(ctx context.Context, q search.Query) ([]*model.School, error) {
	return call[[]*model.School](ctx, c, http.MethodGet, "/api/school/search", pageParams(q), nil)
}

func pageParams(q search.Query) url.Values {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("value", q.Text)
	return v
}

func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope[T]
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env); err != nil {
		return zero, &APIError{Status: resp.StatusCode, Kind: apperr.KindUnknown, Message: "malformed response"}
	}
	if resp.StatusCode >= 400 || env.Result != "success" {
		kind := env.Kind
		if kind == "" {
			kind = apperr.KindUnknown
		}
		return zero, &APIError{Status: resp.StatusCode, Kind: kind, Field: env.Field, Message: env.Message}
	}
	return env.Data, nil
}
