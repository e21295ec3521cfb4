// internal/adapters/memory/store.go
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/internal/core/ports"
)

var ErrTxClosed = errors.New("transaction already closed")

// Store is an in-memory persistence collaborator. Transactions work on a
// private copy of the state which replaces the live state on commit, so a
// rolled back transaction leaves no trace. Transactions are serialized.
type Store struct {
	txMu sync.Mutex // held for the lifetime of a transaction and by non-tx writes

	mu       sync.RWMutex
	state    *state
	failures map[string]error
}

type state struct {
	products map[string]domain.Product
	sales    []domain.SaleRecord
	lastSale int64
	settings map[string]string
}

var (
	_ ports.UnitOfWork         = (*Store)(nil)
	_ ports.ProductRepository  = (*Store)(nil)
	_ ports.SaleRepository     = (*saleView)(nil)
	_ ports.SettingsRepository = (*Store)(nil)
)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		state: &state{
			products: make(map[string]domain.Product),
			settings: make(map[string]string),
		},
		failures: make(map[string]error),
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
// Operation names match method names, e.g. "AppendSaleRecord" or "Commit".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures[op]
}

// Begin starts a transaction on a copy of the current state.
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	if err := s.failure("Begin"); err != nil {
		return nil, err
	}
	s.txMu.Lock()

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	return &tx{store: s, repo: &repo{store: s, st: working}}, nil
}

// LoadProducts reads live state outside a transaction.
func (s *Store) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	return s.live().LoadProducts(ctx)
}

func (s *Store) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	return s.live().FindByID(ctx, productID)
}

func (s *Store) Insert(ctx context.Context, product *domain.Product) error {
	return s.write(func(r *repo) error { return r.Insert(ctx, product) })
}

func (s *Store) Update(ctx context.Context, product *domain.Product) error {
	return s.write(func(r *repo) error { return r.Update(ctx, product) })
}

func (s *Store) Delete(ctx context.Context, productID string) error {
	return s.write(func(r *repo) error { return r.Delete(ctx, productID) })
}

func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) (int, error) {
	var stock int
	err := s.write(func(r *repo) error {
		var err error
		stock, err = r.AdjustStock(ctx, productID, delta)
		return err
	})
	return stock, err
}

func (s *Store) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return s.live().LowStock(ctx, threshold)
}

func (s *Store) NextSaleID(ctx context.Context) (int64, error) {
	return s.live().NextSaleID(ctx)
}

func (s *Store) AppendSaleRecord(ctx context.Context, record *domain.SaleRecord) error {
	return s.write(func(r *repo) error { return r.AppendSaleRecord(ctx, record) })
}

// SaleByID returns a stored sale. FindByID on the store itself reads products.
func (s *Store) SaleByID(ctx context.Context, saleID int64) (*domain.SaleRecord, error) {
	return s.live().findSale(saleID), nil
}

func (s *Store) ListSaleRecords(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	return s.live().ListSaleRecords(ctx, limit)
}

// Sales returns the sale repository view of the store.
func (s *Store) Sales() ports.SaleRepository { return &saleView{s: s} }

func (s *Store) Get(ctx context.Context, key, defaultValue string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.state.settings[key]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.settings[key] = value
	return nil
}

func (s *Store) All(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.state.settings))
	for k, v := range s.state.settings {
		out[k] = v
	}
	return out, nil
}

// live returns a read-only repo over a copy of the live state.
func (s *Store) live() *repo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &repo{store: s, st: s.state.clone()}
}

// write applies fn to a copy of the state and publishes it if fn succeeds.
func (s *Store) write(fn func(r *repo) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.state.clone()
	s.mu.RUnlock()

	if err := fn(&repo{store: s, st: working}); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = working
	s.mu.Unlock()
	return nil
}

type saleView struct{ s *Store }

func (v *saleView) NextSaleID(ctx context.Context) (int64, error) { return v.s.NextSaleID(ctx) }
func (v *saleView) AppendSaleRecord(ctx context.Context, r *domain.SaleRecord) error {
	return v.s.AppendSaleRecord(ctx, r)
}
func (v *saleView) FindByID(ctx context.Context, id int64) (*domain.SaleRecord, error) {
	return v.s.SaleByID(ctx, id)
}
func (v *saleView) ListSaleRecords(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	return v.s.ListSaleRecords(ctx, limit)
}

type tx struct {
	store  *Store
	repo   *repo
	closed bool
}

func (t *tx) Products() ports.ProductRepository { return t.repo }
func (t *tx) Sales() ports.SaleRepository       { return t.repo.sales() }

func (t *tx) Commit(ctx context.Context) error {
	if t.closed {
		return ErrTxClosed
	}
	if err := t.store.failure("Commit"); err != nil {
		return err
	}
	t.closed = true

	t.store.mu.Lock()
	t.store.state = t.repo.st
	t.store.mu.Unlock()
	t.store.txMu.Unlock()
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.store.txMu.Unlock()
	return nil
}

// repo implements the repository ports over one state value.
type repo struct {
	store *Store
	st    *state
}

func (r *repo) fail(op string) error { return r.store.failure(op) }

func (r *repo) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	if err := r.fail("LoadProducts"); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *repo) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	if err := r.fail("FindByID"); err != nil {
		return nil, err
	}
	p, ok := r.st.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) Insert(ctx context.Context, product *domain.Product) error {
	if err := r.fail("Insert"); err != nil {
		return err
	}
	if _, ok := r.st.products[product.ProductID]; ok {
		return &domain.DuplicateProductError{ProductID: product.ProductID}
	}
	r.st.products[product.ProductID] = *product
	return nil
}

func (r *repo) Update(ctx context.Context, product *domain.Product) error {
	if err := r.fail("Update"); err != nil {
		return err
	}
	existing, ok := r.st.products[product.ProductID]
	if !ok {
		return &domain.ProductNotFoundError{ProductID: product.ProductID}
	}
	updated := *product
	updated.CreatedAt = existing.CreatedAt
	r.st.products[product.ProductID] = updated
	return nil
}

func (r *repo) Delete(ctx context.Context, productID string) error {
	if err := r.fail("Delete"); err != nil {
		return err
	}
	if _, ok := r.st.products[productID]; !ok {
		return &domain.ProductNotFoundError{ProductID: productID}
	}
	delete(r.st.products, productID)
	return nil
}

func (r *repo) AdjustStock(ctx context.Context, productID string, delta int) (int, error) {
	if err := r.fail("AdjustStock"); err != nil {
		return 0, err
	}
	p, ok := r.st.products[productID]
	if !ok {
		return 0, &domain.ProductNotFoundError{ProductID: productID}
	}
	if p.Stock+delta < 0 {
		return 0, &domain.InsufficientStockError{
			ProductID: productID, Name: p.Name, Available: p.Stock, Requested: -delta,
		}
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	r.st.products[productID] = p
	return p.Stock, nil
}

func (r *repo) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	all, err := r.LoadProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	for _, p := range all {
		if p.IsLowStock(threshold) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *repo) NextSaleID(ctx context.Context) (int64, error) {
	if err := r.fail("NextSaleID"); err != nil {
		return 0, err
	}
	return r.st.lastSale + 1, nil
}

func (r *repo) AppendSaleRecord(ctx context.Context, record *domain.SaleRecord) error {
	if err := r.fail("AppendSaleRecord"); err != nil {
		return err
	}
	if record.SaleID <= r.st.lastSale {
		record.SaleID = r.st.lastSale + 1
	}
	r.st.lastSale = record.SaleID
	cp := *record
	cp.Items = append([]domain.SaleLine(nil), record.Items...)
	r.st.sales = append(r.st.sales, cp)
	return nil
}

func (r *repo) findSale(id int64) *domain.SaleRecord {
	for i := range r.st.sales {
		if r.st.sales[i].SaleID == id {
			rec := r.st.sales[i]
			return &rec
		}
	}
	return nil
}

func (r *repo) ListSaleRecords(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	if err := r.fail("ListSaleRecords"); err != nil {
		return nil, err
	}
	out := append([]domain.SaleRecord(nil), r.st.sales...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].SaleID > out[j].SaleID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *repo) sales() ports.SaleRepository { return &txSales{r: r} }

type txSales struct{ r *repo }

func (t *txSales) NextSaleID(ctx context.Context) (int64, error) { return t.r.NextSaleID(ctx) }
func (t *txSales) AppendSaleRecord(ctx context.Context, rec *domain.SaleRecord) error {
	return t.r.AppendSaleRecord(ctx, rec)
}
func (t *txSales) FindByID(ctx context.Context, id int64) (*domain.SaleRecord, error) {
	return t.r.findSale(id), nil
}
func (t *txSales) ListSaleRecords(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	return t.r.ListSaleRecords(ctx, limit)
}

func (st *state) clone() *state {
	cp := &state{
		products: make(map[string]domain.Product, len(st.products)),
		sales:    append([]domain.SaleRecord(nil), st.sales...),
		lastSale: st.lastSale,
		settings: make(map[string]string, len(st.settings)),
	}
	for k, v := range st.products {
		cp.products[k] = v
	}
	for k, v := range st.settings {
		cp.settings[k] = v
	}
	return cp
}

// Seed inserts products directly, bypassing validation. Intended for tests and demos.
func (s *Store) Seed(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		p.ProductID = strings.TrimSpace(p.ProductID)
		s.state.products[p.ProductID] = p
	}
}
