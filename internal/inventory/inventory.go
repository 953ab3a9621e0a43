// Package inventory moves stock between warehouses. The ledger keeps item
// quantities non-negative, the executor turns a debit, a credit and a
// movement record into one unit, and the request lifecycle gates transfers
// behind a reviewer's approval.
package inventory

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/erazemk/skladisca/internal/lock"
	"github.com/erazemk/skladisca/internal/model"
)

// Service bundles the three inventory components over one store.
type Service struct {
	Ledger    *Ledger
	Transfers *Executor
	Requests  *Requests
}

// Option configures a Service.
type Option func(*deps)

// WithLocker sets the keyed locker. The default is an in-process locker,
// which is only correct while a single process writes to the store.
func WithLocker(l lock.Locker) Option {
	return func(d *deps) { d.locker = l }
}

// WithClock sets the time source for movement and request timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *deps) { d.log = l }
}

type deps struct {
	store  Store
	locker lock.Locker
	now    func() time.Time
	log    *slog.Logger
}

// New builds the inventory components on store. If store is a TxStore,
// transfers run in a single transaction; otherwise failed transfers are
// compensated step by step.
func New(store Store, opts ...Option) *Service {
	d := &deps{
		store:  store,
		locker: lock.NewLocal(),
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	ledger := &Ledger{deps: d}
	exec := &Executor{deps: d}
	return &Service{
		Ledger:    ledger,
		Transfers: exec,
		Requests:  &Requests{deps: d, exec: exec},
	}
}

func creditKey(name string, warehouseID int64) string {
	return "item:" + strconv.FormatInt(warehouseID, 10) + ":" + name
}

func requestKey(id int64) string {
	return "request:" + strconv.FormatInt(id, 10)
}

func persistErr(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), model.ErrPersistence, err)
}

var domainErrors = []error{
	model.ErrNotFound,
	model.ErrInvalidInput,
	model.ErrInsufficientStock,
	model.ErrInvalidQuantity,
	model.ErrSameWarehouse,
	model.ErrRequestClosed,
	model.ErrPersistence,
}

// txErr passes classified errors through and marks the rest (begin and
// commit failures) as persistence failures.
func txErr(err error, op string) error {
	for _, kind := range domainErrors {
		if errors.Is(err, kind) {
			return err
		}
	}
	return persistErr(err, "%s", op)
}
