package kv

import (
	"context"

	"github.com/iho/escrowledger/internal/domain"
)

// EscrowRepository implements usecase.EscrowRepository over a Store.
type EscrowRepository struct {
	store Store
}

// NewEscrowRepository creates a new EscrowRepository.
func NewEscrowRepository(store Store) *EscrowRepository {
	return &EscrowRepository{store: store}
}

// Lock returns the lock record for a reference.
func (r *EscrowRepository) Lock(ctx context.Context, reference string) (*domain.EscrowLock, error) {
	var lock domain.EscrowLock
	found, err := getJSON(ctx, r.store, keyEscrowLock+reference, &lock)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrReferenceNotFound
	}
	return &lock, nil
}

// PutLock stores the lock record for a reference.
func (r *EscrowRepository) PutLock(ctx context.Context, reference string, lock domain.EscrowLock) error {
	return putJSON(ctx, r.store, keyEscrowLock+reference, lock)
}

// DeleteLock removes the lock record for a reference.
func (r *EscrowRepository) DeleteLock(ctx context.Context, reference string) error {
	return r.store.Delete(ctx, keyEscrowLock+reference)
}

// Deposit returns the prefunding deposit for a reference.
func (r *EscrowRepository) Deposit(ctx context.Context, reference string) (*domain.PrefundingDeposit, error) {
	var deposit domain.PrefundingDeposit
	found, err := getJSON(ctx, r.store, keyEscrowDeposit+reference, &deposit)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrReferenceNotFound
	}
	return &deposit, nil
}

// PutDeposit stores the prefunding deposit for a reference.
func (r *EscrowRepository) PutDeposit(ctx context.Context, reference string, deposit domain.PrefundingDeposit) error {
	return putJSON(ctx, r.store, keyEscrowDeposit+reference, deposit)
}

// DeleteDeposit removes the prefunding deposit for a reference.
func (r *EscrowRepository) DeleteDeposit(ctx context.Context, reference string) error {
	return r.store.Delete(ctx, keyEscrowDeposit+reference)
}

// Status returns the lifecycle status for a reference.
func (r *EscrowRepository) Status(ctx context.Context, reference string) (domain.ReferenceStatus, bool, error) {
	var status domain.ReferenceStatus
	found, err := getJSON(ctx, r.store, keyEscrowStatus+reference, &status)
	return status, found, err
}

// SetStatus stores the lifecycle status for a reference.
func (r *EscrowRepository) SetStatus(ctx context.Context, reference string, status domain.ReferenceStatus) error {
	return putJSON(ctx, r.store, keyEscrowStatus+reference, status)
}

// OwnerReferences lists the references an owner has prefunded.
func (r *EscrowRepository) OwnerReferences(ctx context.Context, owner string) ([]string, error) {
	var refs []string
	if _, err := getJSON(ctx, r.store, keyOwnerRefs+owner, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// AppendOwnerReference appends a reference to the owner's index.
func (r *EscrowRepository) AppendOwnerReference(ctx context.Context, owner, reference string) error {
	refs, err := r.OwnerReferences(ctx, owner)
	if err != nil {
		return err
	}
	refs = append(refs, reference)
	return putJSON(ctx, r.store, keyOwnerRefs+owner, refs)
}

// RemoveOwnerReference removes a reference from the owner's index.
func (r *EscrowRepository) RemoveOwnerReference(ctx context.Context, owner, reference string) error {
	refs, err := r.OwnerReferences(ctx, owner)
	if err != nil {
		return err
	}
	kept := refs[:0]
	for _, ref := range refs {
		if ref != reference {
			kept = append(kept, ref)
		}
	}
	return putJSON(ctx, r.store, keyOwnerRefs+owner, kept)
}
