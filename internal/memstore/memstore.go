// Package memstore has in-memory stand-ins for the postgres, redis and object
// storage backends, used by the service and handler tests.
package memstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"gymsync/internal/events"
	"gymsync/internal/models"
	"gymsync/internal/repository"
)

type Accounts struct {
	mu    sync.Mutex
	byID  map[string]models.Account
	clock time.Time
	// Err, when set, is returned by every call.
	Err error
}

func NewAccounts() *Accounts {
	return &Accounts{
		byID:  make(map[string]models.Account),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances a fake clock so orderings by timestamp are deterministic.
func (a *Accounts) tick() time.Time {
	a.clock = a.clock.Add(time.Second)
	return a.clock
}

// Put stores account as is, for seeding tests.
func (a *Accounts) Put(account models.Account) models.Account {
	a.mu.Lock()
	defer a.mu.Unlock()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = a.tick()
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}
	a.byID[account.ID] = account
	return account
}

func (a *Accounts) Get(id string) (models.Account, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	account, ok := a.byID[id]
	return account, ok
}

func (a *Accounts) Create(_ context.Context, account models.Account) (models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return models.Account{}, a.Err
	}
	for _, existing := range a.byID {
		if existing.Email == account.Email {
			return models.Account{}, repository.ErrDuplicateEmail
		}
	}
	account.Status = models.InitialStatus(account.Role)
	account.CreatedAt = a.tick()
	account.UpdatedAt = account.CreatedAt
	a.byID[account.ID] = account
	return account, nil
}

func (a *Accounts) FindByEmail(_ context.Context, email string) (models.Account, error) {
	return a.find(func(acc models.Account) bool { return acc.Email == email })
}

func (a *Accounts) FindByID(_ context.Context, id string) (models.Account, error) {
	return a.find(func(acc models.Account) bool { return acc.ID == id })
}

func (a *Accounts) FindFirstByRole(_ context.Context, role models.Role) (models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return models.Account{}, a.Err
	}
	var (
		found models.Account
		ok    bool
	)
	for _, acc := range a.byID {
		if acc.Role == role && (!ok || acc.CreatedAt.Before(found.CreatedAt)) {
			found, ok = acc, true
		}
	}
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return found, nil
}

func (a *Accounts) find(match func(models.Account) bool) (models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return models.Account{}, a.Err
	}
	for _, acc := range a.byID {
		if match(acc) {
			return acc, nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (a *Accounts) ListByStatus(_ context.Context, status models.Status) ([]models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return nil, a.Err
	}
	out := make([]models.Account, 0)
	for _, acc := range a.byID {
		if acc.Role == models.RoleGymOwner && acc.Status == status {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if status == models.StatusPending {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (a *Accounts) CountByStatus(_ context.Context) (models.StatusCounts, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return models.StatusCounts{}, a.Err
	}
	var counts models.StatusCounts
	for _, acc := range a.byID {
		if acc.Role != models.RoleGymOwner {
			continue
		}
		switch acc.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		}
		counts.Total++
	}
	return counts, nil
}

func (a *Accounts) UpdateStatus(_ context.Context, id string, change models.StatusChange) (models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return models.Account{}, a.Err
	}
	acc, ok := a.byID[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	if acc.Status != change.From {
		return models.Account{}, repository.ErrStatusConflict
	}
	now := a.tick()
	acc.Status = change.To
	acc.RejectionReason = change.Reason
	acc.ReviewedAt = &now
	acc.UpdatedAt = now
	if change.ReviewerID != "" {
		reviewer := change.ReviewerID
		acc.ReviewedBy = &reviewer
	}
	a.byID[id] = acc
	return acc, nil
}

func (a *Accounts) UpdateProfile(_ context.Context, id string, profile models.Profile) (models.Account, error) {
	return a.update(id, func(acc *models.Account) {
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		set(&acc.Name, profile.Name)
		set(&acc.OrganizationName, profile.OrganizationName)
		set(&acc.PhoneNumber, profile.PhoneNumber)
		set(&acc.Address, profile.Address)
		set(&acc.Description, profile.Description)
	})
}

func (a *Accounts) SetAvatar(_ context.Context, id string, key string) (models.Account, error) {
	return a.update(id, func(acc *models.Account) {
		acc.AvatarKey = &key
	})
}

func (a *Accounts) update(id string, apply func(*models.Account)) (models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return models.Account{}, a.Err
	}
	acc, ok := a.byID[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	apply(&acc)
	acc.UpdatedAt = a.tick()
	a.byID[id] = acc
	return acc, nil
}

type Revocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	Err     error
}

func NewRevocations() *Revocations {
	return &Revocations{revoked: make(map[string]time.Time)}
}

func (r *Revocations) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *Revocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	_, ok := r.revoked[tokenID]
	return ok, nil
}

type Events struct {
	mu        sync.Mutex
	published []events.Event
	Err       error
}

func (e *Events) Publish(_ context.Context, event events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.published = append(e.published, event)
	return nil
}

func (e *Events) Published() []events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]events.Event(nil), e.published...)
}

type Avatars struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	Err     error
}

func NewAvatars() *Avatars {
	return &Avatars{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (a *Avatars) PutAvatar(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if a.Err != nil {
		return a.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = buf.Bytes()
	a.types[key] = contentType
	return nil
}

func (a *Avatars) RemoveAvatar(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	delete(a.types, key)
	return nil
}

// Object returns the stored bytes and content type for key.
func (a *Avatars) Object(key string) ([]byte, string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	return data, a.types[key], ok
}

func (a *Avatars) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.objects)
}
