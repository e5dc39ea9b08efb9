package gossip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport delivers an encoded snapshot to a peer.
type Transport interface {
	// Send delivers the payload to the peer at addr. Returns an error if the
	// peer couldn't be reached or didn't acknowledge the snapshot.
	Send(ctx context.Context, addr string, enc Encoding, payload []byte) error
}

// HTTPTransport delivers snapshots with 'POST /gossip' requests to the peers
// node server.
type HTTPTransport struct {
	httpClient *http.Client
}

func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (t *HTTPTransport) Send(
	ctx context.Context,
	addr string,
	enc Encoding,
	payload []byte,
) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, gossipURL(addr), bytes.NewReader(payload),
	)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", enc.ContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request: bad status: %d", resp.StatusCode)
	}
	return nil
}

var _ Transport = &HTTPTransport{}

// gossipURL returns the gossip endpoint of the peer at addr. addr may include
// a scheme, otherwise 'http' is used.
func gossipURL(addr string) string {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return strings.TrimSuffix(addr, "/") + "/gossip"
}
