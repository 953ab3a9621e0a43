package inventory

import (
	"context"
	"fmt"

	"github.com/erazemk/skladisca/internal/model"
)

// Requests manages transfer requests. A request moves stock only when it is
// approved, and only pending requests can be decided.
type Requests struct {
	*deps
	exec *Executor
}

// Create stores a pending request. Stock is not checked until approval.
func (r *Requests) Create(ctx context.Context, in CreateRequestInput) (*model.Request, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	u, err := r.store.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, persistErr(err, "getting user %d", in.UserID)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %d", model.ErrNotFound, in.UserID)
	}

	item, err := r.store.GetItem(ctx, in.ItemID)
	if err != nil {
		return nil, persistErr(err, "getting item %d", in.ItemID)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", model.ErrNotFound, in.ItemID)
	}

	for _, id := range []int64{in.FromWarehouseID, in.ToWarehouseID} {
		w, err := r.store.GetWarehouse(ctx, id)
		if err != nil {
			return nil, persistErr(err, "getting warehouse %d", id)
		}
		if w == nil {
			return nil, fmt.Errorf("%w: warehouse %d", model.ErrNotFound, id)
		}
	}

	req, err := r.store.CreateRequest(ctx, &model.Request{
		UserID:          in.UserID,
		ItemID:          in.ItemID,
		Quantity:        in.Quantity,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Timestamp:       r.now(),
		Status:          model.RequestPending,
	})
	if err != nil {
		return nil, persistErr(err, "creating request")
	}

	r.log.Info("request created", "request", req.ID, "user", in.UserID, "item", in.ItemID, "quantity", in.Quantity)
	return req, nil
}

// Approve runs the request's transfer and marks it approved. If the
// transfer fails the request stays pending and the error is returned.
func (r *Requests) Approve(ctx context.Context, id, reviewerID int64) (*model.Movement, error) {
	unlock, err := r.locker.Lock(ctx, requestKey(id))
	if err != nil {
		return nil, fmt.Errorf("locking request %d: %w", id, err)
	}
	defer unlock()

	req, err := r.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	m, afterErr, err := r.exec.transfer(ctx, TransferInput{
		ItemID:          req.ItemID,
		Quantity:        req.Quantity,
		FromWarehouseID: req.FromWarehouseID,
		ToWarehouseID:   req.ToWarehouseID,
		UserID:          &reviewerID,
		RequestID:       &req.ID,
	}, func(st Store, _ *model.Movement) error {
		return r.decide(ctx, st, id, model.RequestApproved, reviewerID)
	})
	if err != nil {
		return nil, err
	}
	if afterErr != nil {
		// The transfer stands; only the status is stale.
		r.log.Error("request approved but status not updated",
			"request", id, "movement", m.ID, "error", afterErr)
		return m, nil
	}

	r.log.Info("request approved", "request", id, "reviewer", reviewerID, "movement", m.ID)
	return m, nil
}

// Reject marks a pending request rejected. Stock is not touched.
func (r *Requests) Reject(ctx context.Context, id, reviewerID int64) (*model.Request, error) {
	unlock, err := r.locker.Lock(ctx, requestKey(id))
	if err != nil {
		return nil, fmt.Errorf("locking request %d: %w", id, err)
	}
	defer unlock()

	if _, err := r.pending(ctx, id); err != nil {
		return nil, err
	}
	if err := r.decide(ctx, r.store, id, model.RequestRejected, reviewerID); err != nil {
		return nil, err
	}

	r.log.Info("request rejected", "request", id, "reviewer", reviewerID)
	return r.Get(ctx, id)
}

// Get returns a request.
func (r *Requests) Get(ctx context.Context, id int64) (*model.Request, error) {
	req, err := r.store.GetRequest(ctx, id)
	if err != nil {
		return nil, persistErr(err, "getting request %d", id)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %d", model.ErrNotFound, id)
	}
	return req, nil
}

// List returns requests matching filter.
func (r *Requests) List(ctx context.Context, filter model.RequestFilter) ([]model.Request, error) {
	reqs, err := r.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, persistErr(err, "listing requests")
	}
	return reqs, nil
}

func (r *Requests) pending(ctx context.Context, id int64) (*model.Request, error) {
	req, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request %d is %s", model.ErrRequestClosed, id, req.Status)
	}
	return req, nil
}

func (r *Requests) decide(ctx context.Context, st Store, id int64, to model.RequestStatus, reviewerID int64) error {
	ok, err := st.SetRequestStatus(ctx, id, model.RequestPending, to, reviewerID, r.now())
	if err != nil {
		return persistErr(err, "updating request %d", id)
	}
	if !ok {
		return fmt.Errorf("%w: request %d", model.ErrRequestClosed, id)
	}
	return nil
}
