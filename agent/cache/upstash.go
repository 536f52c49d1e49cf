package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 2 << 20

type UpstashConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Upstash talks to Upstash Redis over its REST API.
type Upstash struct {
	baseURL    string
	token      string
	httpClient *http.Client
	settings
}

var _ Cache = (*Upstash)(nil)

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewUpstash(cfg UpstashConfig, opts ...Option) (*Upstash, error) {
	return NewUpstashWithClient(cfg, nil, opts...)
}

func NewUpstashWithClient(cfg UpstashConfig, client *http.Client, opts ...Option) (*Upstash, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("cache: upstash url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("cache: invalid upstash url: %w", err)
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("cache: upstash token is required")
	}

	s, err := newSettings(opts)
	if err != nil {
		return nil, err
	}

	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Upstash{
		baseURL:    baseURL,
		token:      token,
		httpClient: client,
		settings:   s,
	}, nil
}

func (u *Upstash) Get(ctx context.Context, key string) (string, error) {
	resp, err := u.exec(ctx, []any{"GET", u.keyPrefix + key})
	if err != nil {
		return "", err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return "", ErrMiss
	}

	var value string
	if err := json.Unmarshal(result, &value); err != nil {
		return "", fmt.Errorf("cache: decode upstash payload: %w", err)
	}
	return value, nil
}

func (u *Upstash) Set(ctx context.Context, key, value string) error {
	cmd := []any{"SET", u.keyPrefix + key, value}
	if u.ttl > 0 {
		cmd = append(cmd, "EX", ttlSeconds(u.ttl))
	}
	_, err := u.exec(ctx, cmd)
	return err
}

func (u *Upstash) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	body, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("cache: marshal upstash command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cache: build upstash request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cache: upstash request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("cache: read upstash response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("cache: upstash status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("cache: decode upstash response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("cache: upstash: %s", parsed.Error)
	}
	return &parsed, nil
}
