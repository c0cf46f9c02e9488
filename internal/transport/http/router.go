package http

import (
	"net/http"

	"challenge-response-service/internal/rpc"
	"github.com/gorilla/mux"
)

// NewRouter exposes the RPC responder over plain HTTP and WebSocket.
func NewRouter(responder *rpc.Responder) http.Handler {
	rpcHandler := NewRPCHandler(responder)
	wsHandler := NewWSHandler(responder)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/rpc", rpcHandler.ServeCall).Methods(http.MethodPost)
	r.HandleFunc("/rpc/{namespace}/{method}", rpcHandler.ServeMethod).Methods(http.MethodPost)
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods(http.MethodGet)
	return r
}
