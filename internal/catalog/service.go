package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"faultline/internal/fault"
	"faultline/internal/faults"
)

// PriceQuoter obtains a price quote for a SKU from the upstream pricing
// collaborator.
type PriceQuoter interface {
	Quote(ctx context.Context, sku string) (Quote, error)
}

// Service implements the catalog use cases. All failures are typed
// fault values; the service never touches the wire format.
type Service struct {
	repo   Repository
	quoter PriceQuoter
	now    func() time.Time
	newID  func() string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDFunc overrides item id generation, mainly for tests.
func WithIDFunc(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService creates the catalog service.
func NewService(repo Repository, quoter PriceQuoter, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		quoter: quoter,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetItem returns one item. A missing item forwards to the shared
// not-found case.
func (s *Service) GetItem(ctx context.Context, id string) (Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, faults.ErrResourceNotFound) {
			return Item{}, faults.ErrGetItemFailed.Forward(err)
		}
		return Item{}, err
	}
	return it, nil
}

// CreateItem validates and stores a new item.
func (s *Service) CreateItem(ctx context.Context, sku, name string, priceCents int64) (Item, error) {
	if err := validateItem(sku, name, priceCents); err != nil {
		return Item{}, err
	}
	it := Item{
		ID:         s.newID(),
		SKU:        strings.TrimSpace(sku),
		Name:       strings.TrimSpace(name),
		PriceCents: priceCents,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// RemoveItem deletes an item. A missing item forwards to the shared
// not-found case, from a second independent call site.
func (s *Service) RemoveItem(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, faults.ErrResourceNotFound) {
			return faults.ErrRemoveItemFailed.Forward(err)
		}
		return err
	}
	return nil
}

// QuoteItem looks the item up and asks the upstream pricing service for
// a current quote.
func (s *Service) QuoteItem(ctx context.Context, id string) (Quote, error) {
	it, err := s.GetItem(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	q, err := s.quoter.Quote(ctx, it.SKU)
	if err != nil {
		return Quote{}, err
	}
	if q.PriceCents <= 0 {
		return Quote{}, faults.ErrQuoteUnavailable.New(fault.F("sku", it.SKU))
	}
	return q, nil
}

// Prune removes items not updated within maxAge.
func (s *Service) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.PruneOlderThan(ctx, s.now().UTC().Add(-maxAge))
}

func validateItem(sku, name string, priceCents int64) error {
	switch {
	case strings.TrimSpace(sku) == "":
		return faults.ErrInvalidItem.New(
			fault.F("field", "sku"), fault.F("reason", "sku must not be empty"))
	case strings.TrimSpace(name) == "":
		return faults.ErrInvalidItem.New(
			fault.F("field", "name"), fault.F("reason", "name must not be empty"))
	case priceCents <= 0:
		return faults.ErrInvalidItem.New(
			fault.F("field", "price_cents"), fault.F("reason", "price must be positive"))
	}
	return nil
}
