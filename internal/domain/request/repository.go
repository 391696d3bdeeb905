package request

import (
	"context"
)

// Repository stores requests in the requests collection.
type Repository interface {
	// Create stores req under a generated id and returns it.
	Create(ctx context.Context, req *Request) (string, error)
	FindByID(ctx context.Context, id string) (*Request, error)
	// ListByStatus returns requests with the given status, most recent first.
	ListByStatus(ctx context.Context, status Status) ([]*Request, error)
	List(ctx context.Context) ([]*Request, error)
	// Resolve applies res only if the request is still pending. It reports
	// whether a pending request was found and updated.
	Resolve(ctx context.Context, id string, res Resolution) (bool, error)
}
