// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial_attitude/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteWait = 2 * time.Second

// Snapshot is the latest state served over HTTP and websocket.
type Snapshot struct {
	Complementary *PoseMessage `json:"complementary,omitempty"`
	Quaternion    *PoseMessage `json:"quaternion,omitempty"`
	Bias          *BiasMessage `json:"bias,omitempty"`
}

// poseHub keeps the latest messages and fans updates out to websocket
// clients. Slow clients miss updates rather than block the MQTT callback.
type poseHub struct {
	mu   sync.RWMutex
	snap Snapshot
	subs map[chan []byte]struct{}
}

func newPoseHub() *poseHub {
	return &poseHub{subs: make(map[chan []byte]struct{})}
}

func (h *poseHub) setPose(m PoseMessage) {
	h.mu.Lock()
	if m.Estimator == EstimatorQuaternion {
		h.snap.Quaternion = &m
	} else {
		h.snap.Complementary = &m
	}
	h.broadcastLocked()
	h.mu.Unlock()
}

func (h *poseHub) setBias(m BiasMessage) {
	h.mu.Lock()
	h.snap.Bias = &m
	h.broadcastLocked()
	h.mu.Unlock()
}

func (h *poseHub) broadcastLocked() {
	payload, err := json.Marshal(h.snap)
	if err != nil {
		log.Printf("web: snapshot marshal error: %v", err)
		return
	}
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *poseHub) snapshot() (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := h.snap
	return s, s.Complementary != nil || s.Quaternion != nil
}

func (h *poseHub) subscribe() chan []byte {
	ch := make(chan []byte, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *poseHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// newWebMux serves the API, the websocket stream and, when staticDir is
// set and exists, the files under it (index.html for the dashboard).
func newWebMux(h *poseHub, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		s, ok := h.snapshot()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	mux.HandleFunc("/ws/orientation", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()
		streamSnapshots(conn, h)
	})

	if staticDir != "" && staticAvailable("web", staticDir) {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// staticAvailable reports whether path exists and logs when it does not.
func staticAvailable(component, path string) bool {
	if _, err := os.Stat(path); err != nil {
		log.Printf("%s: static assets not served: %v", component, err)
		return false
	}
	return true
}

func streamSnapshots(conn *websocket.Conn, h *poseHub) {
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	// Reader: only needed to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if s, ok := h.snapshot(); ok {
		payload, err := json.Marshal(s)
		if err == nil {
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}

	for {
		select {
		case <-closed:
			return
		case payload := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	}
}

// RunWeb serves the latest attitude from MQTT until ctx is cancelled.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	hub := newPoseHub()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	for _, topic := range []string{cfg.TopicPoseComplementary, cfg.TopicPoseQuaternion} {
		if err := subscribeJSON(client, "web", topic, hub.setPose); err != nil {
			return err
		}
	}
	if cfg.TopicCalibration != "" {
		if err := subscribeJSON(client, "web", cfg.TopicCalibration, hub.setBias); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: newWebMux(hub, "web"),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web: server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
