// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/zupt_displacement/internal/config"
)

const wsWriteTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// liveFeed keeps the latest displacement message and fans every update out
// to connected websocket clients. All writes to a client happen under mu.
type liveFeed struct {
	mu      sync.Mutex
	last    DisplacementMessage
	have    bool
	clients map[*websocket.Conn]struct{}
}

func newLiveFeed() *liveFeed {
	return &liveFeed{clients: make(map[*websocket.Conn]struct{})}
}

func (f *liveFeed) publish(m DisplacementMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = m
	f.have = true
	for conn := range f.clients {
		if err := writeMessage(conn, m); err != nil {
			log.Printf("web: websocket write error, dropping client: %v", err)
			delete(f.clients, conn)
			conn.Close()
		}
	}
}

func writeMessage(conn *websocket.Conn, m DisplacementMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(m)
}

func (f *liveFeed) handleLatest(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	m, have := f.last, f.have
	f.mu.Unlock()

	if !have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func (f *liveFeed) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	f.mu.Lock()
	if f.have {
		if err := writeMessage(conn, f.last); err != nil {
			f.mu.Unlock()
			conn.Close()
			return
		}
	}
	f.clients[conn] = struct{}{}
	f.mu.Unlock()

	// Clients only listen; reading keeps control frames flowing and tells
	// us when they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	f.mu.Lock()
	if _, ok := f.clients[conn]; ok {
		delete(f.clients, conn)
		conn.Close()
	}
	f.mu.Unlock()
}

func (f *liveFeed) routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/displacement", f.handleLatest)
	mux.HandleFunc("/ws", f.handleWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

func RunWeb() error {
	cfg := config.Get()
	feed := newLiveFeed()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to displacement topic and fan out each message
	token := client.Subscribe(cfg.TopicDisplacement, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m DisplacementMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("MQTT payload unmarshal error: %v", err)
			return
		}
		feed.publish(m)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicDisplacement)

	// 3) JSON API, websocket stream and static files from ./web
	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, feed.routes("web"))
}
