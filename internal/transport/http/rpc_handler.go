package http

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"challenge-response-service/internal/domain"
	"challenge-response-service/internal/rpc"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// RPCHandler serves responder calls as JSON over HTTP.
type RPCHandler struct {
	responder *rpc.Responder
}

func NewRPCHandler(responder *rpc.Responder) *RPCHandler {
	return &RPCHandler{responder: responder}
}

type callRequest struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type callResponse struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result,omitempty"`
	Error  *errorPayload   `json:"error,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeCall handles POST /rpc with an envelope naming the method.
func (h *RPCHandler) ServeCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeCall(w, callResponse{Error: &errorPayload{Code: domain.KindInvalidArgument.Code(), Message: "invalid request body"}}, http.StatusBadRequest)
		return
	}
	h.dispatch(w, r, req.ID, req.Method, req.Params)
}

// ServeMethod handles POST /rpc/{namespace}/{method}; the body is the params.
func (h *RPCHandler) ServeMethod(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	params, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeCall(w, callResponse{Error: &errorPayload{Code: domain.KindInvalidArgument.Code(), Message: "unreadable body"}}, http.StatusBadRequest)
		return
	}
	// An empty body means no params; an empty RawMessage cannot be re-encoded.
	if len(params) == 0 {
		params = nil
	}
	h.dispatch(w, r, nil, vars["namespace"]+"."+vars["method"], params)
}

func (h *RPCHandler) dispatch(w http.ResponseWriter, r *http.Request, id json.RawMessage, method string, params json.RawMessage) {
	result, err := h.responder.Call(r.Context(), method, params)
	if err != nil {
		payload, status := errorFor(err)
		if status >= http.StatusInternalServerError {
			log.Printf("rpc %s failed: %v", method, err)
		}
		writeCall(w, callResponse{ID: id, Error: &payload}, status)
		return
	}
	writeCall(w, callResponse{ID: id, Result: result}, http.StatusOK)
}

// errorFor maps a domain error kind onto the wire.
func errorFor(err error) (errorPayload, int) {
	kind := domain.KindOf(err)
	msg := err.Error()
	var status int
	switch kind {
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindInvalidArgument:
		status = http.StatusBadRequest
	case domain.KindInvalidState:
		status = http.StatusConflict
	case domain.KindPermissionDenied:
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
	}
	// Internal errors may carry driver details.
	if kind == domain.KindInternal {
		msg = "internal error"
	}
	return errorPayload{Code: kind.Code(), Message: msg}, status
}

func writeCall(w http.ResponseWriter, resp callResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("rpc write error: %v", err)
	}
}
