package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// sctpKeyPattern matches self-hosted ServerChan3 send keys. The captured
// digits select the per-user push endpoint.
var sctpKeyPattern = regexp.MustCompile(`^sctp(\d+)t`)

// ServerChanOptions configures a ServerChan notifier.
type ServerChanOptions struct {
	// HTTPClient issues the webhook requests. Defaults to a client with a
	// 10s timeout.
	HTTPClient *http.Client

	// Tags is an optional comma separated tag list attached to every push.
	Tags string

	// BaseURL overrides the derived endpoint, mainly for tests.
	BaseURL string
}

// ServerChan sends notifications through the ServerChan webhook service.
type ServerChan struct {
	sendKey string
	url     string
	client  *http.Client
	tags    string
}

// NewServerChan creates a ServerChan notifier for the given send key. Keys
// of the form sctp<N>t... route to the self-hosted push.ft07.com endpoint
// for user N; anything else goes through sctapi.ftqq.com.
func NewServerChan(sendKey string, optFns ...func(o *ServerChanOptions)) (*ServerChan, error) {
	if sendKey == "" {
		return nil, fmt.Errorf("serverchan: send key must not be empty")
	}

	opts := ServerChanOptions{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	url := opts.BaseURL
	if url == "" {
		var err error
		url, err = sendURL(sendKey)
		if err != nil {
			return nil, err
		}
	}

	return &ServerChan{
		sendKey: sendKey,
		url:     url,
		client:  opts.HTTPClient,
		tags:    opts.Tags,
	}, nil
}

// Push implements Notifier.
func (s *ServerChan) Push(ctx context.Context, title, body string) error {
	params := map[string]any{
		"title": title,
		"desp":  body,
	}
	if s.tags != "" {
		params["tags"] = s.tags
	}

	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("serverchan: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("serverchan: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json;charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("serverchan: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("serverchan: unexpected status %d: %s", resp.StatusCode, snippet)
	}

	return nil
}

func sendURL(sendKey string) (string, error) {
	if len(sendKey) >= 4 && sendKey[:4] == "sctp" {
		m := sctpKeyPattern.FindStringSubmatch(sendKey)
		if m == nil {
			return "", fmt.Errorf("serverchan: invalid sctp send key format")
		}
		return fmt.Sprintf("https://%s.push.ft07.com/send/%s.send", m[1], sendKey), nil
	}
	return fmt.Sprintf("https://sctapi.ftqq.com/%s.send", sendKey), nil
}
