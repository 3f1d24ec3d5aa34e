package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/iho/escrowledger/internal/domain"
	"github.com/iho/escrowledger/internal/usecase"
)

type balanceKey struct {
	identity string
	account  domain.Account
}

type postingKey struct {
	identity string
	account  domain.Account
	index    domain.PostingIndex
}

// MockBalanceRepository is a mock implementation of BalanceRepository.
type MockBalanceRepository struct {
	mu       sync.RWMutex
	balances map[balanceKey]decimal.Decimal
	global   map[domain.Account]decimal.Decimal
	touched  map[string][]domain.Account

	BalanceFunc            func(ctx context.Context, identity string, account domain.Account) (decimal.Decimal, bool, error)
	SetBalanceFunc         func(ctx context.Context, identity string, account domain.Account, balance decimal.Decimal) error
	GlobalBalanceFunc      func(ctx context.Context, account domain.Account) (decimal.Decimal, bool, error)
	SetGlobalBalanceFunc   func(ctx context.Context, account domain.Account, balance decimal.Decimal) error
	AccountsByIdentityFunc func(ctx context.Context, identity string) ([]domain.Account, error)
	TouchAccountFunc       func(ctx context.Context, identity string, account domain.Account) error
}

func NewMockBalanceRepository() *MockBalanceRepository {
	return &MockBalanceRepository{
		balances: make(map[balanceKey]decimal.Decimal),
		global:   make(map[domain.Account]decimal.Decimal),
		touched:  make(map[string][]domain.Account),
	}
}

func (m *MockBalanceRepository) Balance(ctx context.Context, identity string, account domain.Account) (decimal.Decimal, bool, error) {
	if m.BalanceFunc != nil {
		return m.BalanceFunc(ctx, identity, account)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.balances[balanceKey{identity, account}]
	return b, ok, nil
}

func (m *MockBalanceRepository) SetBalance(ctx context.Context, identity string, account domain.Account, balance decimal.Decimal) error {
	if m.SetBalanceFunc != nil {
		return m.SetBalanceFunc(ctx, identity, account, balance)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balanceKey{identity, account}] = balance
	return nil
}

func (m *MockBalanceRepository) GlobalBalance(ctx context.Context, account domain.Account) (decimal.Decimal, bool, error) {
	if m.GlobalBalanceFunc != nil {
		return m.GlobalBalanceFunc(ctx, account)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.global[account]
	return b, ok, nil
}

func (m *MockBalanceRepository) SetGlobalBalance(ctx context.Context, account domain.Account, balance decimal.Decimal) error {
	if m.SetGlobalBalanceFunc != nil {
		return m.SetGlobalBalanceFunc(ctx, account, balance)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global[account] = balance
	return nil
}

func (m *MockBalanceRepository) AccountsByIdentity(ctx context.Context, identity string) ([]domain.Account, error) {
	if m.AccountsByIdentityFunc != nil {
		return m.AccountsByIdentityFunc(ctx, identity)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Account, len(m.touched[identity]))
	copy(out, m.touched[identity])
	return out, nil
}

func (m *MockBalanceRepository) TouchAccount(ctx context.Context, identity string, account domain.Account) error {
	if m.TouchAccountFunc != nil {
		return m.TouchAccountFunc(ctx, identity, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.touched[identity]
	for i, a := range list {
		if a == account {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	m.touched[identity] = append(list, account)
	return nil
}

// MockPostingRepository is a mock implementation of PostingRepository.
type MockPostingRepository struct {
	mu         sync.RWMutex
	counter    domain.PostingIndex
	counterSet bool
	indexes    map[balanceKey][]domain.PostingIndex
	records    map[postingKey]domain.PostingRecord

	CounterFunc     func(ctx context.Context) (domain.PostingIndex, bool, error)
	SetCounterFunc  func(ctx context.Context, index domain.PostingIndex) error
	AppendIndexFunc func(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) error
	IndexesFunc     func(ctx context.Context, identity string, account domain.Account) ([]domain.PostingIndex, error)
	PutRecordFunc   func(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex, rec domain.PostingRecord) error
	RecordFunc      func(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) (*domain.PostingRecord, error)
}

func NewMockPostingRepository() *MockPostingRepository {
	return &MockPostingRepository{
		indexes: make(map[balanceKey][]domain.PostingIndex),
		records: make(map[postingKey]domain.PostingRecord),
	}
}

func (m *MockPostingRepository) Counter(ctx context.Context) (domain.PostingIndex, bool, error) {
	if m.CounterFunc != nil {
		return m.CounterFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counter, m.counterSet, nil
}

func (m *MockPostingRepository) SetCounter(ctx context.Context, index domain.PostingIndex) error {
	if m.SetCounterFunc != nil {
		return m.SetCounterFunc(ctx, index)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter = index
	m.counterSet = true
	return nil
}

func (m *MockPostingRepository) AppendIndex(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) error {
	if m.AppendIndexFunc != nil {
		return m.AppendIndexFunc(ctx, identity, account, index)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := balanceKey{identity, account}
	m.indexes[k] = append(m.indexes[k], index)
	return nil
}

func (m *MockPostingRepository) Indexes(ctx context.Context, identity string, account domain.Account) ([]domain.PostingIndex, error) {
	if m.IndexesFunc != nil {
		return m.IndexesFunc(ctx, identity, account)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.indexes[balanceKey{identity, account}]
	out := make([]domain.PostingIndex, len(list))
	copy(out, list)
	return out, nil
}

func (m *MockPostingRepository) PutRecord(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex, rec domain.PostingRecord) error {
	if m.PutRecordFunc != nil {
		return m.PutRecordFunc(ctx, identity, account, index, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[postingKey{identity, account, index}] = rec
	return nil
}

func (m *MockPostingRepository) Record(ctx context.Context, identity string, account domain.Account, index domain.PostingIndex) (*domain.PostingRecord, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, identity, account, index)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[postingKey{identity, account, index}]
	if !ok {
		return nil, domain.ErrReferenceNotFound
	}
	return &rec, nil
}

// MockEscrowRepository is a mock implementation of EscrowRepository.
type MockEscrowRepository struct {
	mu       sync.RWMutex
	locks    map[string]domain.EscrowLock
	deposits map[string]domain.PrefundingDeposit
	statuses map[string]domain.ReferenceStatus
	refs     map[string][]string

	LockFunc                 func(ctx context.Context, reference string) (*domain.EscrowLock, error)
	PutLockFunc              func(ctx context.Context, reference string, lock domain.EscrowLock) error
	DeleteLockFunc           func(ctx context.Context, reference string) error
	DepositFunc              func(ctx context.Context, reference string) (*domain.PrefundingDeposit, error)
	PutDepositFunc           func(ctx context.Context, reference string, deposit domain.PrefundingDeposit) error
	DeleteDepositFunc        func(ctx context.Context, reference string) error
	StatusFunc               func(ctx context.Context, reference string) (domain.ReferenceStatus, bool, error)
	SetStatusFunc            func(ctx context.Context, reference string, status domain.ReferenceStatus) error
	OwnerReferencesFunc      func(ctx context.Context, owner string) ([]string, error)
	AppendOwnerReferenceFunc func(ctx context.Context, owner, reference string) error
	RemoveOwnerReferenceFunc func(ctx context.Context, owner, reference string) error
}

func NewMockEscrowRepository() *MockEscrowRepository {
	return &MockEscrowRepository{
		locks:    make(map[string]domain.EscrowLock),
		deposits: make(map[string]domain.PrefundingDeposit),
		statuses: make(map[string]domain.ReferenceStatus),
		refs:     make(map[string][]string),
	}
}

func (m *MockEscrowRepository) Lock(ctx context.Context, reference string) (*domain.EscrowLock, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	lock, ok := m.locks[reference]
	if !ok {
		return nil, domain.ErrReferenceNotFound
	}
	return &lock, nil
}

func (m *MockEscrowRepository) PutLock(ctx context.Context, reference string, lock domain.EscrowLock) error {
	if m.PutLockFunc != nil {
		return m.PutLockFunc(ctx, reference, lock)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[reference] = lock
	return nil
}

func (m *MockEscrowRepository) DeleteLock(ctx context.Context, reference string) error {
	if m.DeleteLockFunc != nil {
		return m.DeleteLockFunc(ctx, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, reference)
	return nil
}

func (m *MockEscrowRepository) Deposit(ctx context.Context, reference string) (*domain.PrefundingDeposit, error) {
	if m.DepositFunc != nil {
		return m.DepositFunc(ctx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	deposit, ok := m.deposits[reference]
	if !ok {
		return nil, domain.ErrReferenceNotFound
	}
	return &deposit, nil
}

func (m *MockEscrowRepository) PutDeposit(ctx context.Context, reference string, deposit domain.PrefundingDeposit) error {
	if m.PutDepositFunc != nil {
		return m.PutDepositFunc(ctx, reference, deposit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deposits[reference] = deposit
	return nil
}

func (m *MockEscrowRepository) DeleteDeposit(ctx context.Context, reference string) error {
	if m.DeleteDepositFunc != nil {
		return m.DeleteDepositFunc(ctx, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.deposits, reference)
	return nil
}

func (m *MockEscrowRepository) Status(ctx context.Context, reference string) (domain.ReferenceStatus, bool, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[reference]
	return status, ok, nil
}

func (m *MockEscrowRepository) SetStatus(ctx context.Context, reference string, status domain.ReferenceStatus) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, reference, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[reference] = status
	return nil
}

func (m *MockEscrowRepository) OwnerReferences(ctx context.Context, owner string) ([]string, error) {
	if m.OwnerReferencesFunc != nil {
		return m.OwnerReferencesFunc(ctx, owner)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.refs[owner]))
	copy(out, m.refs[owner])
	return out, nil
}

func (m *MockEscrowRepository) AppendOwnerReference(ctx context.Context, owner, reference string) error {
	if m.AppendOwnerReferenceFunc != nil {
		return m.AppendOwnerReferenceFunc(ctx, owner, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[owner] = append(m.refs[owner], reference)
	return nil
}

func (m *MockEscrowRepository) RemoveOwnerReference(ctx context.Context, owner, reference string) error {
	if m.RemoveOwnerReferenceFunc != nil {
		return m.RemoveOwnerReferenceFunc(ctx, owner, reference)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.refs[owner]
	for i, r := range list {
		if r == reference {
			m.refs[owner] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// MockCustody is a mock implementation of Custody. The default behavior
// accepts every call and tracks balances and locks in memory.
type MockCustody struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
	locks    map[string]map[usecase.LockID]decimal.Decimal

	SetLockFunc     func(ctx context.Context, id usecase.LockID, account string, amount decimal.Decimal, until uint64) error
	ExtendLockFunc  func(ctx context.Context, id usecase.LockID, account string, amount decimal.Decimal, until uint64) error
	RemoveLockFunc  func(ctx context.Context, id usecase.LockID, account string) error
	TransferFunc    func(ctx context.Context, from, to string, amount decimal.Decimal) error
	FreeBalanceFunc func(ctx context.Context, account string) (decimal.Decimal, error)
}

func NewMockCustody() *MockCustody {
	return &MockCustody{
		balances: make(map[string]decimal.Decimal),
		locks:    make(map[string]map[usecase.LockID]decimal.Decimal),
	}
}

// Fund credits an account's mock balance.
func (m *MockCustody) Fund(account string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] = m.balances[account].Add(amount)
}

// Locked reports the total locked against an account.
func (m *MockCustody) Locked(account string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, amount := range m.locks[account] {
		total = total.Add(amount)
	}
	return total
}

// BalanceOf reports an account's total mock balance.
func (m *MockCustody) BalanceOf(account string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[account]
}

func (m *MockCustody) SetLock(ctx context.Context, id usecase.LockID, account string, amount decimal.Decimal, until uint64) error {
	if m.SetLockFunc != nil {
		return m.SetLockFunc(ctx, id, account, amount, until)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[account] == nil {
		m.locks[account] = make(map[usecase.LockID]decimal.Decimal)
	}
	m.locks[account][id] = amount
	return nil
}

func (m *MockCustody) ExtendLock(ctx context.Context, id usecase.LockID, account string, amount decimal.Decimal, until uint64) error {
	if m.ExtendLockFunc != nil {
		return m.ExtendLockFunc(ctx, id, account, amount, until)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[account] == nil {
		m.locks[account] = make(map[usecase.LockID]decimal.Decimal)
	}
	if current, ok := m.locks[account][id]; !ok || current.LessThan(amount) {
		m.locks[account][id] = amount
	}
	return nil
}

func (m *MockCustody) RemoveLock(ctx context.Context, id usecase.LockID, account string) error {
	if m.RemoveLockFunc != nil {
		return m.RemoveLockFunc(ctx, id, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks[account], id)
	return nil
}

func (m *MockCustody) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if m.TransferFunc != nil {
		return m.TransferFunc(ctx, from, to, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[from] = m.balances[from].Sub(amount)
	m.balances[to] = m.balances[to].Add(amount)
	return nil
}

func (m *MockCustody) FreeBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	if m.FreeBalanceFunc != nil {
		return m.FreeBalanceFunc(ctx, account)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	free := m.balances[account]
	for _, amount := range m.locks[account] {
		free = free.Sub(amount)
	}
	return free, nil
}

// MockPeriodSource is a mock implementation of PeriodSource.
type MockPeriodSource struct {
	mu      sync.RWMutex
	current uint64
}

func NewMockPeriodSource(current uint64) *MockPeriodSource {
	return &MockPeriodSource{current: current}
}

func (m *MockPeriodSource) Current() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *MockPeriodSource) Advance(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current += n
}

// MockEntropy is a mock implementation of Entropy.
type MockEntropy struct {
	SeedValue [32]byte
}

func NewMockEntropy() *MockEntropy {
	return &MockEntropy{}
}

func (m *MockEntropy) Seed() [32]byte {
	return m.SeedValue
}

// MockEventSink is a mock implementation of EventSink.
type MockEventSink struct {
	mu     sync.Mutex
	events []domain.Event

	PublishFunc func(ctx context.Context, event domain.Event) error
}

func NewMockEventSink() *MockEventSink {
	return &MockEventSink{}
}

func (m *MockEventSink) Publish(ctx context.Context, event domain.Event) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns everything published so far.
func (m *MockEventSink) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.events))
	copy(out, m.events)
	return out
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu sync.Mutex
	n  int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("test-id-%d", m.n)
}
