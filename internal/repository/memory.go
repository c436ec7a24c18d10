package repository

import (
	"context"
	"sort"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	petDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/pet"
	providerDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	reviewDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/review"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// The in-memory repositories back the application and handler unit tests.
// They store copies so callers cannot mutate stored state through a pointer.

// MemoryBookingRepository is a mutex-guarded BookingRepository.
type MemoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]bookingDomain.Booking
}

// NewMemoryBookingRepository creates an empty MemoryBookingRepository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{bookings: make(map[uuid.UUID]bookingDomain.Booking)}
}

func (r *MemoryBookingRepository) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return &bk, nil
}

func (r *MemoryBookingRepository) FindByRequesterID(_ context.Context, requesterID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(b *bookingDomain.Booking) bool { return b.RequesterID() == requesterID }, page, limit)
}

func (r *MemoryBookingRepository) FindByProviderID(_ context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(b *bookingDomain.Booking) bool { return b.ProviderID() == providerID }, page, limit)
}

func (r *MemoryBookingRepository) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.page(func(*bookingDomain.Booking) bool { return true }, page, limit)
}

func (r *MemoryBookingRepository) FindActiveByProviderBetween(_ context.Context, providerID uuid.UUID, from, to civil.Date) ([]*bookingDomain.Booking, error) {
	return r.filter(func(b *bookingDomain.Booking) bool {
		return b.ProviderID() == providerID &&
			b.Status().HoldsCalendar() &&
			!b.StartDate().After(to) &&
			!b.EndDate().Before(from)
	}), nil
}

func (r *MemoryBookingRepository) FindAcceptedEndedBefore(_ context.Context, day civil.Date, limit int) ([]*bookingDomain.Booking, error) {
	matches := r.filter(func(b *bookingDomain.Booking) bool {
		return b.Status() == bookingDomain.StatusAccepted && b.EndDate().Before(day)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MemoryBookingRepository) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *MemoryBookingRepository) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[bk.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	r.bookings[bk.ID()] = *bk
	return nil
}

// CompareAndSetStatus checks and writes under one lock, matching the guarded
// UPDATE of the Postgres repository.
func (r *MemoryBookingRepository) CompareAndSetStatus(_ context.Context, bk *bookingDomain.Booking, from bookingDomain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if stored.Status() != from || stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = *bk
	return nil
}

func (r *MemoryBookingRepository) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		b := b
		if keep(&b) {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate() != out[j].StartDate() {
			return out[i].StartDate().Before(out[j].StartDate())
		}
		return out[i].ID().String() < out[j].ID().String()
	})
	return out
}

func (r *MemoryBookingRepository) page(keep func(*bookingDomain.Booking) bool, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(keep)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	return paginate(all, page, limit), int64(len(all)), nil
}

// MemoryProviderRepository serves a fixed provider set.
type MemoryProviderRepository struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]*providerDomain.Provider
}

// NewMemoryProviderRepository creates a repository holding providers.
func NewMemoryProviderRepository(providers ...*providerDomain.Provider) *MemoryProviderRepository {
	r := &MemoryProviderRepository{providers: make(map[uuid.UUID]*providerDomain.Provider)}
	for _, p := range providers {
		r.Put(p)
	}
	return r
}

// Put inserts or replaces a provider.
func (r *MemoryProviderRepository) Put(p *providerDomain.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID] = p
}

// AddReview attaches a review to its provider.
func (r *MemoryProviderRepository) AddReview(rv providerDomain.Review) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[rv.ProviderID]; ok {
		cp := *p
		cp.Reviews = append(append([]providerDomain.Review(nil), p.Reviews...), rv)
		r.providers[rv.ProviderID] = &cp
	}
}

func (r *MemoryProviderRepository) FindByID(_ context.Context, id uuid.UUID) (*providerDomain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, domain.NewNotFoundError("Provider", id.String())
	}
	return p, nil
}

func (r *MemoryProviderRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*providerDomain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.UserID == userID {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("Provider", userID.String())
}

func (r *MemoryProviderRepository) ListAll(_ context.Context) ([]*providerDomain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*providerDomain.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// MemoryPetRepository is an in-memory PetRepository.
type MemoryPetRepository struct {
	mu   sync.Mutex
	pets map[uuid.UUID]petDomain.Pet
}

// NewMemoryPetRepository creates an empty MemoryPetRepository.
func NewMemoryPetRepository() *MemoryPetRepository {
	return &MemoryPetRepository{pets: make(map[uuid.UUID]petDomain.Pet)}
}

func (r *MemoryPetRepository) FindByID(_ context.Context, id uuid.UUID) (*petDomain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pets[id]
	if !ok {
		return nil, domain.NewNotFoundError("Pet", id.String())
	}
	return &p, nil
}

func (r *MemoryPetRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*petDomain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*petDomain.Pet
	for _, p := range r.pets {
		p := p
		if p.IsOwnedBy(ownerID) && p.IsActive() {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

func (r *MemoryPetRepository) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*petDomain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*petDomain.Pet
	for _, id := range ids {
		if p, ok := r.pets[id]; ok {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *MemoryPetRepository) Save(_ context.Context, pet *petDomain.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pets[pet.ID()] = *pet
	return nil
}

func (r *MemoryPetRepository) Update(_ context.Context, pet *petDomain.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.pets[pet.ID()]
	if !ok {
		return domain.NewNotFoundError("Pet", pet.ID().String())
	}
	if stored.Version() != pet.Version()-1 {
		return domain.NewConflictError("pet was modified by another transaction")
	}
	r.pets[pet.ID()] = *pet
	return nil
}

// MemoryReviewRepository is an in-memory ReviewRepository.
type MemoryReviewRepository struct {
	mu      sync.Mutex
	reviews []reviewDomain.Review
}

// NewMemoryReviewRepository creates an empty MemoryReviewRepository.
func NewMemoryReviewRepository() *MemoryReviewRepository {
	return &MemoryReviewRepository{}
}

func (r *MemoryReviewRepository) Save(_ context.Context, review *reviewDomain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.BookingID() == review.BookingID() {
			return domain.NewConflictError("booking has already been reviewed")
		}
	}
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *MemoryReviewRepository) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*reviewDomain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews {
		if existing.BookingID() == bookingID {
			rv := existing
			return &rv, nil
		}
	}
	return nil, domain.NewNotFoundError("Review", bookingID.String())
}

func (r *MemoryReviewRepository) FindByProviderID(_ context.Context, providerID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reviewDomain.Review
	for i := len(r.reviews) - 1; i >= 0; i-- {
		if r.reviews[i].ProviderID() == providerID {
			rv := r.reviews[i]
			out = append(out, &rv)
		}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func paginate[T any](items []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
