package api

import (
	"context"
	"fmt"
	"net/http"
)

// Resource is a typed view on one REST collection under /api/{path}.
// T is the full entity (as returned by the server, with its id); D is the
// create/update payload (the entity minus local-only fields).
type Resource[T any, D any] struct {
	client *Client
	path   string
}

// NewResource returns a Resource rooted at /api/{path}, e.g. "clienti".
func NewResource[T any, D any](client *Client, path string) *Resource[T, D] {
	return &Resource[T, D]{client: client, path: path}
}

// List fetches the authoritative collection state.
func (r *Resource[T, D]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.client.do(ctx, http.MethodGet, "/api/"+r.path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new record and returns it as stored, server id included.
func (r *Resource[T, D]) Create(ctx context.Context, payload D) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPost, "/api/"+r.path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the record with the given id.
func (r *Resource[T, D]) Update(ctx context.Context, id int64, payload D) (*T, error) {
	var out T
	path := fmt.Sprintf("/api/%s/%d", r.path, id)
	if err := r.client.do(ctx, http.MethodPut, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the record with the given id. ErrNotFound means it was
// already gone; most callers treat that as success.
func (r *Resource[T, D]) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/%s/%d", r.path, id)
	return r.client.do(ctx, http.MethodDelete, path, nil, nil)
}
