// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/gorilla/websocket"
	"github.com/sethvargo/go-retry"
)

const (
	changesPath = "/api/changes"

	defaultReconnectBackoff = 500 * time.Millisecond
	handshakeTimeout        = 10 * time.Second
)

// ChangesFeed is a [store.ChangeSource] reading the server's websocket
// change feed.
//
// Run keeps one connection open and re-dials with capped exponential backoff
// when it drops. Changesets are delivered to the handlers in subscription
// order on the Run goroutine. Changes written while the feed is disconnected
// are not replayed.
type ChangesFeed struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	backoff    time.Duration
	maxBackoff time.Duration

	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]func(models.Changeset)

	ready     chan struct{}
	readyOnce sync.Once

	logger *logger.Logger
}

// NewChangesFeed constructs a feed for the server at adapterCfg.HTTPAddress.
// Nothing is dialed until Run is called.
func NewChangesFeed(adapterCfg config.Adapter, workersCfg config.Workers, peerID string, logger *logger.Logger) (*ChangesFeed, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	header := http.Header{}
	if token := strings.TrimSpace(adapterCfg.Token); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	if peerID != "" {
		header.Set(utils.PeerIDHeader, peerID)
	}

	backoff := workersCfg.ReconnectBackoff
	if backoff <= 0 {
		backoff = defaultReconnectBackoff
	}
	maxBackoff := max(workersCfg.MaxReconnectBackoff, backoff)

	return &ChangesFeed{
		url:    websocketURL(baseURL) + changesPath,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		backoff:    backoff,
		maxBackoff: maxBackoff,
		handlers:   make(map[uint64]func(models.Changeset)),
		ready:      make(chan struct{}),
		logger:     logger,
	}, nil
}

func websocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}

// Subscribe implements [store.ChangeSource]. The returned function is
// idempotent.
func (f *ChangesFeed) Subscribe(handler func(models.Changeset)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = handler
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.handlers, id)
			f.mu.Unlock()
		})
	}
}

// Ready is closed once the first connection is established.
func (f *ChangesFeed) Ready() <-chan struct{} {
	return f.ready
}

// Run implements [workers.Worker]. It returns nil when ctx is cancelled and
// [ErrUnauthorized] when the server rejects the handshake.
func (f *ChangesFeed) Run(ctx context.Context) error {
	for {
		conn, err := f.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error connecting to change feed: %w", err)
		}
		f.readyOnce.Do(func() { close(f.ready) })
		f.logger.Info().Str("url", f.url).Msg("change feed connected")

		err = f.stream(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		f.logger.Warn().Err(err).Str("url", f.url).Msg("change feed dropped, reconnecting")
	}
}

func (f *ChangesFeed) connect(ctx context.Context) (*websocket.Conn, error) {
	backoff := retry.WithCappedDuration(f.maxBackoff, retry.NewExponential(f.backoff))

	var conn *websocket.Conn
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, resp, err := f.dialer.DialContext(ctx, f.url, f.header)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return fmt.Errorf("%w: change feed handshake rejected", ErrUnauthorized)
			}
			f.logger.Debug().Err(err).Str("url", f.url).Msg("change feed dial failed")
			return retry.RetryableError(err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// stream delivers changesets until the connection fails or ctx is done.
func (f *ChangesFeed) stream(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var changeset models.Changeset
		if err := conn.ReadJSON(&changeset); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("change feed closed by server: %w", err)
			}
			return err
		}
		f.deliver(changeset)
	}
}

func (f *ChangesFeed) deliver(changeset models.Changeset) {
	f.mu.Lock()
	ids := make([]uint64, 0, len(f.handlers))
	for id := range f.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(models.Changeset), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, f.handlers[id])
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(changeset)
	}
}
