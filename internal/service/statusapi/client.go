package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/andres10976/homework-bot/internal/failure"
)

// DefaultEndpoint is the Practicum homework status endpoint.
const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

// Client queries the homework status API over HTTP.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(endpoint, token string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// Fetch requests status changes since cursor and returns the decoded body.
// A zero cursor means "now".
func (c *Client) Fetch(ctx context.Context, cursor int64) (any, error) {
	if cursor == 0 {
		cursor = c.now().Unix()
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindTransport, "parse status endpoint")
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, failure.Wrap(err, failure.KindTransport, "create status request")
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, failure.Wrap(stableCause(err), failure.KindTransport, "status endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, failure.Remote(resp.StatusCode)
	}

	var raw any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, failure.Wrap(err, failure.KindMalformedResponse, "decode status response")
	}
	return raw, nil
}

// stableCause drops the request URL and socket addresses from transport
// errors. The URL carries the cursor and the local port changes with every
// connection; either would defeat duplicate detection.
func stableCause(err error) error {
	var urlOp string
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlOp, err = urlErr.Op, urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		err = fmt.Errorf("%s %s: %w", opErr.Op, opErr.Net, opErr.Err)
	}

	if urlOp != "" {
		return fmt.Errorf("%s: %w", urlOp, err)
	}
	return err
}
