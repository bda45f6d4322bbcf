package kick

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"

	"github.com/PabloB07/kick-wp/internal/metrics"
)

const (
	defaultTimeout = 20 * time.Second
	maxRedirects   = 4
)

// Response is the transport-level result of a single HTTP attempt.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single outbound HTTP request. Implementations return
// an error only for transport-level failures (DNS, TLS, timeout, breaker
// open); any HTTP status is a successful delivery.
type Transport interface {
	Do(ctx context.Context, method, rawURL string, headers map[string]string, body []byte) (*Response, error)
}

// HTTPTransport is the production Transport: a bounded net/http client behind
// a circuit breaker so a dead upstream fails fast instead of eating the full
// timeout on every page render.
type HTTPTransport struct {
	client *http.Client
	cb     circuitbreaker.CircuitBreaker[any]
}

// NewHTTPTransport creates an HTTPTransport. A zero timeout selects the
// default (20s).
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(60, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "kick_api",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			metrics.CircuitBreakerStateChanges.WithLabelValues("kick_api", e.NewState.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues("kick_api").Set(breakerStateToFloat(e.NewState))
		}).
		Build()

	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		cb: cb,
	}
}

func (t *HTTPTransport) Do(ctx context.Context, method, rawURL string, headers map[string]string, body []byte) (*Response, error) {
	if !t.cb.TryAcquirePermit() {
		return nil, fmt.Errorf("kick api circuit breaker open: %w", circuitbreaker.ErrOpen)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.cb.RecordError(err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.cb.RecordError(err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	t.cb.RecordSuccess()
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// State returns the current breaker state (for testing/monitoring).
func (t *HTTPTransport) State() circuitbreaker.State {
	return t.cb.State()
}

func breakerStateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return -1
	}
}
