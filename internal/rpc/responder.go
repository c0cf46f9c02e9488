package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"challenge-response-service/internal/domain"
)

var (
	// ErrMethodNotFound is returned when no handler is registered for a method.
	ErrMethodNotFound = domain.NewError(domain.KindNotFound, "method not found")
	// ErrInvalidParams is returned when params cannot be decoded for a method.
	ErrInvalidParams = domain.NewError(domain.KindInvalidArgument, "invalid params")
)

// Handler serves one remote method.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Responder dispatches "Namespace.method" calls to registered handlers.
type Responder struct {
	mu      sync.RWMutex
	methods map[string]Handler
}

func NewResponder() *Responder {
	return &Responder{methods: make(map[string]Handler)}
}

// Register adds the methods of a namespace, replacing existing ones of the same name.
func (r *Responder) Register(namespace string, methods map[string]Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, h := range methods {
		r.methods[namespace+"."+name] = h
	}
}

// Call invokes method with the raw JSON params.
func (r *Responder) Call(ctx context.Context, method string, params json.RawMessage) (any, error) {
	r.mu.RLock()
	h, ok := r.methods[method]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
	return h(ctx, params)
}

// Methods lists registered method names in order.
func (r *Responder) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decode(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: missing params", ErrInvalidParams)
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
