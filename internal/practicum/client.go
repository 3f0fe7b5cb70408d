// Package practicum talks to the homework status API.
package practicum

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/homework-bot/internal/domain"
	"github.com/tbourn/homework-bot/internal/jsoncodec"
)

const (
	op = "practicum.GetAPIAnswer"

	// maxErrorBody caps how much of a non-200 body ends up in the error text.
	maxErrorBody = 512
)

var tracer = otel.Tracer("github.com/tbourn/homework-bot/internal/practicum")

// Client fetches homework statuses for one account.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// New returns a Client for endpoint authenticated with token. A nil
// httpClient gets a client with the given timeout.
func New(endpoint, token string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, token: token, http: httpClient}
}

// GetAPIAnswer requests the statuses changed since fromDate (UNIX seconds)
// and returns the decoded JSON object.
//
// Errors:
//   - transport failures: KindTransport wrapping domain.ErrTransport
//     (context cancellation is returned unwrapped)
//   - non-200 responses: KindProtocol wrapping *domain.StatusError
//   - a body that is not a JSON object: KindProtocol wrapping domain.ErrDecode
func (c *Client) GetAPIAnswer(ctx context.Context, fromDate int64) (domain.APIResponse, error) {
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.Int64("practicum.from_date", fromDate))

	resp, err := c.do(ctx, fromDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, fromDate int64) (domain.APIResponse, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, domain.E(domain.KindConfig, op, fmt.Errorf("parse endpoint: %w", err))
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, domain.E(domain.KindConfig, op, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Error().Err(err).Str("endpoint", c.endpoint).Int64("from_date", fromDate).
			Msg("status api request failed")
		return nil, domain.E(domain.KindTransport, op, fmt.Errorf("%w: %v", domain.ErrTransport, err))
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, domain.E(domain.KindProtocol, op, &domain.StatusError{Code: res.StatusCode, Body: string(body)})
	}

	var out domain.APIResponse
	if err := jsoncodec.Decode(res.Body, &out); err != nil {
		return nil, domain.E(domain.KindProtocol, op, fmt.Errorf("%w: %v", domain.ErrDecode, err))
	}
	// "null" decodes into a nil map without error.
	if out == nil {
		return nil, domain.E(domain.KindProtocol, op, fmt.Errorf("%w: null body", domain.ErrDecode))
	}
	return out, nil
}
