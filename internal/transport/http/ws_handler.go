package http

import (
	"encoding/json"
	"log"
	"net/http"

	"challenge-response-service/internal/domain"
	"challenge-response-service/internal/rpc"
	"github.com/gorilla/websocket"
)

// WSHandler carries RPC calls over a websocket, one outbound reply per inbound call.
type WSHandler struct {
	responder *rpc.Responder
	upgrader  websocket.Upgrader
}

func NewWSHandler(responder *rpc.Responder) *WSHandler {
	return &WSHandler{
		responder: responder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// inboundMessage names the method in Type, e.g. "Response.finalize".
type inboundMessage struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload any             `json:"payload"`
}

type readyPayload struct {
	Methods []string `json:"methods"`
}

// ServeWS upgrades the request and serves calls until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				conn.Close()
				return
			}
		}
	}()
	reply := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	ready := reply(outboundMessage{Type: "ready", Payload: readyPayload{Methods: h.responder.Methods()}})
	for ready {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type == "" {
			ready = reply(outboundMessage{ID: inbound.ID, Type: "error", Payload: errorPayload{Code: domain.KindInvalidArgument.Code(), Message: "missing message type"}})
			continue
		}
		result, err := h.responder.Call(r.Context(), inbound.Type, inbound.Payload)
		if err != nil {
			payload, status := errorFor(err)
			if status >= http.StatusInternalServerError {
				log.Printf("ws %s failed: %v", inbound.Type, err)
			}
			ready = reply(outboundMessage{ID: inbound.ID, Type: "error", Payload: payload})
			continue
		}
		ready = reply(outboundMessage{ID: inbound.ID, Type: "result", Payload: result})
	}

	close(send)
	<-writerDone
}
