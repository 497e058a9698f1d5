package assistantapi

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

	"github.com/bnema/assistant-console/internal/ports"
	"github.com/sirupsen/logrus"
)

const (
	apiPrefix        = "agentApi/v1/assistant"
	maxResponseBytes = 1 << 20
)

const (
	pathAsk     = "askAssistant"
	pathWelcome = "welcome"
	pathPromote = "addProceduralMemory"
)

// Client talks to the assistant REST endpoints.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Logger         *logrus.Entry
}

type welcomeData struct {
	Content string `json:"content"`
}

type promoteBody struct {
	BusinessKey string `json:"businessKey"`
	SessionID   string `json:"sessionId"`
	MsgID       string `json:"msgId"`
}

type promoteData struct {
	Success    bool   `json:"success"`
	Result     string `json:"result"`
	FactMemory string `json:"factMemory"`
}

func (c Client) StreamURL(query ports.StreamQuery) (string, error) {
	if strings.TrimSpace(query.Question) == "" {
		return "", errors.New("question is required")
	}
	if query.SessionID == "" {
		return "", errors.New("session id is required")
	}

	endpoint, err := c.endpoint(pathAsk)
	if err != nil {
		return "", err
	}

	values := url.Values{}
	values.Set("question", query.Question)
	values.Set("sessionId", query.SessionID)
	values.Set("businessKey", query.BusinessKey)
	if query.DeepReasoning {
		values.Set("deepReasoning", "true")
	}
	endpoint.RawQuery = values.Encode()

	return endpoint.String(), nil
}

func (c Client) Welcome(ctx context.Context, businessKey string) (string, error) {
	endpoint, err := c.endpoint(pathWelcome)
	if err != nil {
		return "", err
	}
	endpoint.RawQuery = url.Values{"businessKey": []string{businessKey}}.Encode()

	var data welcomeData
	if err := c.do(ctx, http.MethodGet, endpoint.String(), nil, &data); err != nil {
		return "", fmt.Errorf("request welcome: %w", err)
	}

	return data.Content, nil
}

func (c Client) PromoteMemory(ctx context.Context, req ports.PromotionRequest) (ports.PromotionResult, error) {
	if req.MessageID == "" {
		return ports.PromotionResult{}, errors.New("message id is required")
	}

	endpoint, err := c.endpoint(pathPromote)
	if err != nil {
		return ports.PromotionResult{}, err
	}

	body, err := json.Marshal(promoteBody{
		BusinessKey: req.BusinessKey,
		SessionID:   req.SessionID,
		MsgID:       string(req.MessageID),
	})
	if err != nil {
		return ports.PromotionResult{}, fmt.Errorf("encode promotion request: %w", err)
	}

	var data promoteData
	if err := c.do(ctx, http.MethodPost, endpoint.String(), body, &data); err != nil {
		return ports.PromotionResult{}, fmt.Errorf("request memory promotion: %w", err)
	}

	return ports.PromotionResult{
		Success:    data.Success,
		Result:     data.Result,
		FactMemory: data.FactMemory,
	}, nil
}

func (c Client) do(ctx context.Context, method string, endpoint string, body []byte, out any) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if err := env.err(resp.StatusCode); err != nil {
		c.logger().WithFields(logrus.Fields{"status": resp.StatusCode, "code": env.Code, "endpoint": req.URL.Path}).Debug("assistant api returned error envelope")
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}

	return nil
}

func (c Client) endpoint(name string) (*url.URL, error) {
	if c.BaseURL == "" {
		return nil, errors.New("api base url is required")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("api base url host is required")
	}

	return parsed.JoinPath(apiPrefix, name), nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func (c Client) logger() *logrus.Entry {
	if c.Logger != nil {
		return c.Logger.WithField("component", "assistantapi")
	}
	return logrus.NewEntry(logrus.StandardLogger()).WithField("component", "assistantapi")
}
