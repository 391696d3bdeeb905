package memstorage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/makkenzo/cnc-license-admin/internal/domain/request"
	"github.com/makkenzo/cnc-license-admin/internal/ierr"
)

type RequestRepository struct {
	mu       sync.RWMutex
	requests map[string]*request.Request
}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{
		requests: make(map[string]*request.Request),
	}
}

var _ request.Repository = (*RequestRepository)(nil)

func (r *RequestRepository) Create(_ context.Context, req *request.Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneRequest(req)
	stored.ID = uuid.NewString()
	r.requests[stored.ID] = stored
	return stored.ID, nil
}

func (r *RequestRepository) FindByID(_ context.Context, id string) (*request.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, ierr.ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *RequestRepository) ListByStatus(_ context.Context, status request.Status) ([]*request.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*request.Request, 0)
	for _, req := range r.requests {
		if req.Status == status {
			out = append(out, cloneRequest(req))
		}
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

func (r *RequestRepository) List(_ context.Context) ([]*request.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*request.Request, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, cloneRequest(req))
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

func (r *RequestRepository) Resolve(_ context.Context, id string, res request.Resolution) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.requests[id]
	if !ok || req.Status != request.StatusPending {
		return false, nil
	}
	req.Apply(res)
	return true, nil
}

func sortRequestsNewestFirst(reqs []*request.Request) {
	slices.SortStableFunc(reqs, func(a, b *request.Request) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneRequest(req *request.Request) *request.Request {
	c := *req
	if req.DeviceInfo != nil {
		c.DeviceInfo = slices.Clone(req.DeviceInfo)
	}
	c.ApprovedAt = cloneTime(req.ApprovedAt)
	c.RejectedAt = cloneTime(req.RejectedAt)
	if req.DaysValid != nil {
		d := *req.DaysValid
		c.DaysValid = &d
	}
	return &c
}
