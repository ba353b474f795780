package websocket

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/gorilla/websocket"
)

type DialerConfig struct {
	// BaseURL is the ws(s) origin; the listing path is appended per dial.
	BaseURL          string
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
}

// StreamDialer opens the per-listing bid stream of the marketplace.
type StreamDialer struct {
	cfg    DialerConfig
	dialer *websocket.Dialer
	token  func() string
	log    logger.Logger
}

// NewStreamDialer builds a dialer. token may be nil; when it returns a
// non-empty string the handshake carries it as a bearer token.
func NewStreamDialer(cfg DialerConfig, token func() string, log logger.Logger) *StreamDialer {
	return &StreamDialer{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		token: token,
		log:   log,
	}
}

// StreamURL returns the endpoint for one listing.
func (d *StreamDialer) StreamURL(listingID domain.ID) string {
	return strings.TrimRight(d.cfg.BaseURL, "/") + "/ws/bids/" + listingID.String()
}

func (d *StreamDialer) DialBidStream(ctx context.Context, listingID domain.ID) (domain.StreamConn, error) {
	url := d.StreamURL(listingID)

	header := http.Header{}
	if d.token != nil {
		if tok := d.token(); tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	conn, resp, err := d.dialer.DialContext(ctx, url, header)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
			resp.Body.Close()
		}
		return nil, &domain.APIError{
			Op:     "dial bid stream",
			Status: status,
			Kind:   domain.ErrTransportUnavailable,
			Detail: err.Error(),
		}
	}

	d.log.Debug("Bid stream connected", "listing_id", listingID, "url", url)

	sc := &streamConn{conn: conn, done: make(chan struct{})}
	if d.cfg.PingInterval > 0 {
		go sc.pingLoop(d.cfg.PingInterval)
	}
	return sc, nil
}

type streamConn struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func (s *streamConn) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read bid stream: %w", err)
	}
	return data, nil
}

func (s *streamConn) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}

// pingLoop keeps idle connections alive through proxies. WriteControl is
// safe to call alongside the reader.
func (s *streamConn) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(interval)); err != nil {
				return
			}
		}
	}
}
