package sdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"gopkg.in/cenkalti/backoff.v1"

	"github.com/docgate/docgate/internals/timeouts"
)

const (
	DefaultPingTimeout = timeouts.Ping
	identityHeader     = "X-Docgate-Server"
	identityValue      = "docgate"
)

// ErrNotDocgate is returned when something answers on the base url but it
// is not a docgate server.
var ErrNotDocgate = errors.New("not a docgate server")

// Identify returns the version reported by the docgate server at the base
// url, or ErrNotDocgate when the responder lacks the docgate identity.
func (c *Client) Identify(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/version", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.Header.Get(identityHeader) != identityValue {
		return "", ErrNotDocgate
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func IsRunning(baseURL string) bool {
	return IsRunningWithTimeout(baseURL, DefaultPingTimeout)
}

func IsRunningWithTimeout(baseURL string, timeout time.Duration) bool {
	if baseURL == "" {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client := NewClient(
		WithBaseURL(baseURL),
		WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	_, err := client.Identify(ctx)
	return err == nil
}

// WaitForStart polls with exponential backoff until a docgate server
// answers, maxWait passes or ctx is done. A foreign server on the port ends
// the wait with ErrNotDocgate.
func (c *Client) WaitForStart(ctx context.Context, maxWait time.Duration) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 150 * time.Millisecond
	expBackoff.MaxInterval = time.Second
	expBackoff.MaxElapsedTime = maxWait

	foreign := false
	err := backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
		defer cancel()
		_, err := c.Identify(pingCtx)
		if errors.Is(err, ErrNotDocgate) {
			foreign = true
			return nil
		}
		return err
	}, backoff.WithContext(expBackoff, ctx))
	if foreign {
		return ErrNotDocgate
	}
	return err
}
