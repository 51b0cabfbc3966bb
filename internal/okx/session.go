package okx

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"okxgateway/internal/gwlog"
)

// Default endpoint for OKX's public market data WebSocket.
const (
	DefaultHost = "ws.okx.com"
	DefaultPort = "443"
	DefaultPath = "/ws/v5/public"
)

// MessageHandler receives a raw inbound frame and the time it was read off
// the wire. It must not block; Session calls it synchronously from the read
// loop between successive ReadMessage calls.
type MessageHandler func(raw []byte, receiveTime time.Time)

// Session owns one reconnecting WebSocket connection to OKX's public books
// channel. It knows nothing about order books or checksums — that belongs
// to the gateway that wires a MessageHandler in; Session's job is dial,
// subscribe, read, reconnect.
type Session struct {
	host, port, path string
	instruments      []string
	backoff          time.Duration
	log              *gwlog.Entry
	onMessage        MessageHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	stopped bool
}

// NewSession builds a Session for the given endpoint and instrument set.
// backoff is the delay between failed connect attempts.
func NewSession(host, port, path string, instruments []string, backoff time.Duration, onMessage MessageHandler) *Session {
	return &Session{
		host:        host,
		port:        port,
		path:        path,
		instruments: instruments,
		backoff:     backoff,
		log:         gwlog.Get().WithComponent("okx_session"),
		onMessage:   onMessage,
	}
}

// Run blocks, connecting and reading until ctx is cancelled or Stop is
// called. On any connect or read failure it backs off and reconnects,
// mirroring the reference gateway's ioThreadRun/connectAndSubscribe split.
func (s *Session) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.connectAndSubscribe(ctx); err != nil {
			s.mu.Lock()
			stopped := s.stopped
			s.mu.Unlock()
			if stopped {
				return
			}
			s.log.WithError(err).Warn("connect failed, retrying")
			if !s.sleepBackoff(ctx) {
				return
			}
			continue
		}

		for ctx.Err() == nil {
			if err := s.readOnce(); err != nil {
				s.log.WithError(err).Warn("read failed, reconnecting")
				break
			}
		}
		if !s.sleepBackoff(ctx) {
			return
		}
	}
}

// Stop closes the active connection, unblocking a pending ReadMessage so
// Run can observe ctx cancellation and return.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Session) sleepBackoff(ctx context.Context) bool {
	select {
	case <-time.After(s.backoff):
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Session) connectAndSubscribe(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("session stopped")
	}
	s.mu.Unlock()

	u := url.URL{Scheme: "wss", Host: s.host + ":" + s.port, Path: s.path}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			ServerName: s.host,
			MinVersion: tls.VersionTLS12,
		},
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if err := conn.WriteJSON(subscribeFrame(s.instruments)); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe write: %w", err)
	}

	s.log.WithFields(gwlog.Fields{"instruments": s.instruments}).Info("subscribed to okx books channel")
	return nil
}

func (s *Session) readOnce() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("no active connection")
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	receiveTime := time.Now()
	s.onMessage(raw, receiveTime)
	return nil
}

type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type subscribeRequest struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

func subscribeFrame(instruments []string) subscribeRequest {
	args := make([]subscribeArg, 0, len(instruments))
	for _, inst := range instruments {
		args = append(args, subscribeArg{Channel: "books", InstID: inst})
	}
	return subscribeRequest{Op: "subscribe", Args: args}
}
