package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"driftline/server/internal/proto"
	"driftline/server/internal/sim"
	"driftline/server/logging"
	"driftline/server/logging/sinks"
)

func buildSinks(cfg logging.Config) []logging.NamedSink {
	var named []logging.NamedSink
	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout)})
	}
	if cfg.HasSink("json") {
		if cfg.JSONFilePath == "" {
			log.Printf("json sink enabled without DRIFTLINE_JSON_LOG, skipping")
		} else if sink, err := sinks.NewJSONSink(cfg.JSONFilePath); err != nil {
			log.Printf("failed to open json sink: %v", err)
		} else {
			named = append(named, logging.NamedSink{Name: "json", Sink: sink})
		}
	}
	return named
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	metrics := logging.NewMetrics()
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.LogSinks
	logCfg.JSONFilePath = cfg.JSONLogPath

	router := logging.NewRouter(nil, logCfg, buildSinks(logCfg), metrics)
	defer router.Close(context.Background())
	publisher := logging.WithFields(router, map[string]any{"service": "driftline"})

	hub := newHub(cfg, publisher, metrics)
	stop := make(chan struct{})
	go hub.Run(stop)
	defer close(stop)

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	http.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		payload := struct {
			Status     string              `json:"status"`
			ServerTime int64               `json:"serverTime"`
			TickRate   int                 `json:"tickRate"`
			Hub        diagnostics         `json:"hub"`
			Logging    logging.RouterStats `json:"logging"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   cfg.TickRate,
			Hub:        hub.DiagnosticsSnapshot(),
			Logging:    router.Stats(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	http.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		joined := hub.Join()
		data, err := proto.Encode(joined)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("id")
		if raw == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "malformed id", http.StatusBadRequest)
			return
		}
		pawnID := sim.ActorID(id)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for pawn %d: %v", pawnID, err)
			return
		}

		sub, initial, ok := hub.Subscribe(pawnID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown pawn")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		data, err := proto.Encode(initial)
		if err != nil {
			log.Printf("failed to marshal initial state for pawn %d: %v", pawnID, err)
			hub.Disconnect(pawnID)
			return
		}
		if err := sub.send(data); err != nil {
			hub.Disconnect(pawnID)
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(pawnID)
				return
			}

			msg, err := proto.DecodeClientMessage(payload)
			if err != nil {
				log.Printf("discarding malformed message from pawn %d: %v", pawnID, err)
				continue
			}

			switch msg.Type {
			case proto.TypeHeartbeat:
				ack, ok := hub.UpdateHeartbeat(pawnID, time.Now(), msg.SentAt)
				if !ok {
					continue
				}
				data, err := proto.Encode(ack)
				if err != nil {
					log.Printf("failed to marshal heartbeat ack for pawn %d: %v", pawnID, err)
					continue
				}
				if err := sub.send(data); err != nil {
					hub.Disconnect(pawnID)
					return
				}
			case proto.TypeEvent:
				hub.SubmitEvent(pawnID, msg)
			}
		}
	})

	log.Printf("server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
