package parcl

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://v3.parcl-api.com"
	DefaultTimeout = 30 * time.Second
)

// Config overrides the client defaults. Zero values fall back to
// DefaultBaseURL, DefaultTimeout, exchange id 0 and no priority fee.
type Config struct {
	BaseURL               string
	Timeout               time.Duration
	ExchangeID            *ExchangeIdentifier
	PriorityFeePercentile *uint16
	HTTPClient            *http.Client
	Logger                *logrus.Entry
}

// Client talks to the Parcl v3 API. It keeps no per-request state and is
// safe for concurrent use. It never retries.
type Client struct {
	rest                  *resty.Client
	baseURL               string
	exchangeID            ExchangeIdentifier
	priorityFeePercentile *uint16
	log                   *logrus.Entry
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var exchangeID ExchangeIdentifier
	if cfg.ExchangeID != nil {
		exchangeID = *cfg.ExchangeID
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.WithField("component", "parcl")
	}

	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "parcl-v3-client-go")

	return &Client{
		rest:                  rc,
		baseURL:               baseURL,
		exchangeID:            exchangeID,
		priorityFeePercentile: cfg.PriorityFeePercentile,
		log:                   log,
	}
}

// NewDefaultClient binds to the production API with default settings.
func NewDefaultClient() *Client {
	return NewClient(Config{})
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) ExchangeID() ExchangeIdentifier { return c.exchangeID }

func (c *Client) exchangeIDParam() *ExchangeIdentifier {
	id := c.exchangeID
	return &id
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if params == nil {
		params = map[string]string{}
	}
	params["exchange_id"] = c.exchangeID.String()
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body any, out any) error {
	requestID := uuid.NewString()
	req := c.rest.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s %s: encode request body", method, path)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(data)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"method":     method,
			"path":       path,
			"request_id": requestID,
		}).WithError(err).Warn("parcl api request failed")
		return &TransportError{Op: method + " " + path, Err: err}
	}

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode(),
		"elapsed":    time.Since(start),
		"request_id": requestID,
	}).Debug("parcl api request")

	if !resp.IsSuccess() {
		return newAPIError(method, path, resp.StatusCode(), resp.Status(), resp.Body())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &DeserializationError{
			Stage: StageResponse,
			Err:   errors.Wrapf(err, "%s %s", method, path),
		}
	}
	return nil
}
