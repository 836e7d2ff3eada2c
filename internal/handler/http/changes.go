// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/utils"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// changes streams the store's change feed to one peer.
//
// Every store write becomes one JSON text message holding a
// [models.Changeset]: direction "push" for writes the connected peer made
// itself and "pull" for everything else. The subscription is taken before
// the upgrade completes, so no write after a successful handshake is missed.
// A peer that falls more than ChangesBuffer changesets behind is
// disconnected with CloseTryAgainLater; it reconnects and reloads.
func (h *Handler) changes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	peerID, _ := utils.GetPeerIDFromContext(r.Context())

	queue := make(chan models.Changeset, max(h.server.ChangesBuffer, 1))
	overflow := make(chan struct{})
	var once sync.Once

	cancel := h.store.Feed().Subscribe(func(batch models.ChangeBatch) {
		select {
		case queue <- batch.For(peerID):
		default:
			once.Do(func() { close(overflow) })
		}
	})
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered the request
		log.Err(err).Str("func", "*Handler.changes").Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// the peer sends nothing; reading only surfaces close frames and errors
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log.Info().Str("func", "*Handler.changes").Msg("change feed subscriber connected")
	defer log.Info().Str("func", "*Handler.changes").Msg("change feed subscriber disconnected")

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case changeset := <-queue:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(changeset); err != nil {
				log.Err(err).Str("func", "*Handler.changes").Msg("failed to send changeset")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Err(err).Str("func", "*Handler.changes").Msg("failed to ping subscriber")
				return
			}
		case <-overflow:
			log.Warn().Str("func", "*Handler.changes").
				Int("buffer", cap(queue)).
				Msg("change feed subscriber fell behind")
			message := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber fell behind")
			_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
			return
		case <-h.closing:
			message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
			return
		case <-closed:
			return
		}
	}
}
