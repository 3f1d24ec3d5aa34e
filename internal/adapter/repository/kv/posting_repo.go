package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/iho/escrowledger/internal/domain"
)

// PostingRepository implements usecase.PostingRepository over a Store.
// Posting records are write-once: the engine never issues the same
// (identity, account, index) key twice.
type PostingRepository struct {
	store Store
}

// NewPostingRepository creates a new PostingRepository.
func NewPostingRepository(store Store) *PostingRepository {
	return &PostingRepository{store: store}
}

// Counter returns the last assigned posting index; found=false before the
// first posting.
func (r *PostingRepository) Counter(ctx context.Context) (domain.PostingIndex, bool, error) {
	raw, err := r.store.Get(ctx, keyPostingCounter)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode %s: %w", keyPostingCounter, err)
	}
	return domain.PostingIndex(n), true, nil
}

// SetCounter stores the posting index counter.
func (r *PostingRepository) SetCounter(ctx context.Context, index domain.PostingIndex) error {
	return r.store.Put(ctx, keyPostingCounter, []byte(strconv.FormatUint(uint64(index), 10)))
}

// AppendIndex appends a posting index to the (identity, account) list.
func (r *PostingRepository) AppendIndex(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) error {
	indexes, err := r.Indexes(ctx, identity, account)
	if err != nil {
		return err
	}
	indexes = append(indexes, index)
	return putJSON(ctx, r.store, postingListKey(identity, account), indexes)
}

// Indexes lists the posting indices for (identity, account), oldest first.
func (r *PostingRepository) Indexes(ctx context.Context, identity string, account domain.Account) ([]domain.PostingIndex, error) {
	var indexes []domain.PostingIndex
	if _, err := getJSON(ctx, r.store, postingListKey(identity, account), &indexes); err != nil {
		return nil, err
	}
	return indexes, nil
}

// PutRecord stores the audit record for one applied leg.
func (r *PostingRepository) PutRecord(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex, rec domain.PostingRecord) error {
	return putJSON(ctx, r.store, detailKey(identity, account, index), rec)
}

// Record returns the audit record for (identity, account, index).
func (r *PostingRepository) Record(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) (*domain.PostingRecord, error) {
	var rec domain.PostingRecord
	found, err := getJSON(ctx, r.store, detailKey(identity, account, index), &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrReferenceNotFound
	}
	return &rec, nil
}
