//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/pos-engine/internal/adapters/db"
	"github.com/ammerola/pos-engine/internal/core/domain"
	"github.com/ammerola/pos-engine/test/helpers"
)

type RepositorySuite struct {
	suite.Suite
	testDB   *helpers.TestDB
	products *db.ProductRepository
	sales    *db.SaleRepository
	settings *db.SettingsRepository
	jobs     *db.JobRepository
	uow      *db.UnitOfWork
	ctx      context.Context
}

func (s *RepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	logger := helpers.TestLogger()
	s.products = db.NewProductRepository(s.testDB.Database, logger)
	s.sales = db.NewSaleRepository(s.testDB.Database, logger)
	s.settings = db.NewSettingsRepository(s.testDB.Database, logger)
	s.jobs = db.NewJobRepository(s.testDB.Database, logger)
	s.uow = db.NewUnitOfWork(s.testDB.Database, logger)
	s.ctx = context.Background()
}

func (s *RepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *RepositorySuite) sale(id int64, lines ...domain.SaleLine) *domain.SaleRecord {
	totals := domain.ComputeTotals(lines, decimal.RequireFromString("0.10"))
	return &domain.SaleRecord{
		SaleID:    id,
		Timestamp: time.Date(2026, 3, 1, 12, 0, int(id), 0, time.UTC),
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Items:     lines,
	}
}

func line(id string, qty int, price string) domain.SaleLine {
	p := decimal.RequireFromString(price)
	return domain.SaleLine{
		ProductID: id,
		Name:      "Item " + id,
		UnitPrice: p,
		Quantity:  qty,
		LineTotal: p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func (s *RepositorySuite) TestInsertAndFind() {
	p := helpers.CreateTestProduct()

	s.Require().NoError(s.products.Insert(s.ctx, p))

	found, err := s.products.FindByID(s.ctx, p.ProductID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	helpers.CompareProducts(s.T(), p, found)

	missing, err := s.products.FindByID(s.ctx, "NOPE")
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositorySuite) TestInsertDuplicate() {
	p := helpers.CreateTestProduct()
	s.Require().NoError(s.products.Insert(s.ctx, p))

	err := s.products.Insert(s.ctx, helpers.CreateTestProduct())

	var dup *domain.DuplicateProductError
	s.Require().ErrorAs(err, &dup)
	s.Equal(p.ProductID, dup.ProductID)
}

func (s *RepositorySuite) TestInsertRejectedByConstraints() {
	p := helpers.CreateTestProduct(func(p *domain.Product) { p.Stock = -1 })

	err := s.products.Insert(s.ctx, p)

	s.ErrorIs(err, domain.ErrInvalidProduct)
}

func (s *RepositorySuite) TestLoadProductsOrdered() {
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []domain.Product{
		*helpers.CreateTestProduct(func(p *domain.Product) { p.ProductID = "C" }),
		*helpers.CreateTestProduct(func(p *domain.Product) { p.ProductID = "A" }),
		*helpers.CreateTestProduct(func(p *domain.Product) { p.ProductID = "B" }),
	})

	products, err := s.products.LoadProducts(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(products, 3)
	s.Equal("A", products[0].ProductID)
	s.Equal("B", products[1].ProductID)
	s.Equal("C", products[2].ProductID)
}

func (s *RepositorySuite) TestUpdateAndDelete() {
	p := helpers.CreateTestProduct()
	s.Require().NoError(s.products.Insert(s.ctx, p))

	p.Name = "Decaf Beans 1kg"
	p.Price = decimal.RequireFromString("12.25")
	p.Stock = 9
	s.Require().NoError(s.products.Update(s.ctx, p))

	found, err := s.products.FindByID(s.ctx, p.ProductID)
	s.Require().NoError(err)
	helpers.CompareProducts(s.T(), p, found)

	s.Require().NoError(s.products.Delete(s.ctx, p.ProductID))
	s.ErrorIs(s.products.Delete(s.ctx, p.ProductID), domain.ErrProductNotFound)

	p.ProductID = "GONE"
	s.ErrorIs(s.products.Update(s.ctx, p), domain.ErrProductNotFound)
}

func (s *RepositorySuite) TestAdjustStock() {
	s.Require().NoError(s.products.Insert(s.ctx, helpers.CreateTestProduct()))

	tests := []struct {
		name      string
		productID string
		delta     int
		wantStock int
		wantErr   error
	}{
		{name: "decrement", productID: "P001", delta: -2, wantStock: 3},
		{name: "restock", productID: "P001", delta: 4, wantStock: 7},
		{name: "to_zero", productID: "P001", delta: -7, wantStock: 0},
		{name: "below_zero", productID: "P001", delta: -1, wantErr: domain.ErrInsufficientStock},
		{name: "unknown_product", productID: "NOPE", delta: -1, wantErr: domain.ErrProductNotFound},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			stock, err := s.products.AdjustStock(s.ctx, tt.productID, tt.delta)
			if tt.wantErr != nil {
				s.ErrorIs(err, tt.wantErr)
				return
			}
			s.NoError(err)
			s.Equal(tt.wantStock, stock)
		})
	}
}

func (s *RepositorySuite) TestAdjustStock_ConcurrentNeverNegative() {
	s.Require().NoError(s.products.Insert(s.ctx, helpers.CreateTestProduct(func(p *domain.Product) {
		p.Stock = 5
	})))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.products.AdjustStock(context.Background(), "P001", -1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(5, succeeded)
	found, err := s.products.FindByID(s.ctx, "P001")
	s.Require().NoError(err)
	s.Equal(0, found.Stock)
}

func (s *RepositorySuite) TestLowStock() {
	helpers.SeedProducts(s.T(), s.testDB.PgxPool, []domain.Product{
		*helpers.CreateTestProduct(func(p *domain.Product) { p.ProductID = "A"; p.Stock = 0 }),
		*helpers.CreateTestProduct(func(p *domain.Product) { p.ProductID = "B"; p.Stock = 4 }),
		*helpers.CreateTestProduct(func(p *domain.Product) { p.ProductID = "C"; p.Stock = 5 }),
	})

	low, err := s.products.LowStock(s.ctx, 5)

	s.Require().NoError(err)
	s.Require().Len(low, 2)
	s.Equal("A", low[0].ProductID)
	s.Equal("B", low[1].ProductID)
}

func (s *RepositorySuite) TestSalesLog() {
	first, err := s.sales.NextSaleID(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), first)

	s.Require().NoError(s.sales.AppendSaleRecord(s.ctx, s.sale(1, line("P001", 2, "10.00"))))
	s.Require().NoError(s.sales.AppendSaleRecord(s.ctx, s.sale(2, line("P002", 1, "2.50"), line("P001", 1, "10.00"))))

	next, err := s.sales.NextSaleID(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), next)

	records, err := s.sales.ListSaleRecords(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(int64(2), records[0].SaleID)
	s.Equal(int64(1), records[1].SaleID)

	limited, err := s.sales.ListSaleRecords(s.ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	found, err := s.sales.FindByID(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Len(found.Items, 2)
	s.True(found.IsBalanced())
	s.True(decimal.RequireFromString("13.75").Equal(found.Total))
	s.Equal(time.UTC, found.Timestamp.Location())

	missing, err := s.sales.FindByID(s.ctx, 99)
	s.NoError(err)
	s.Nil(missing)
}

func (s *RepositorySuite) TestSettings() {
	lang, err := s.settings.Get(s.ctx, "language", "xx")
	s.Require().NoError(err)
	s.Equal("en", lang)

	missing, err := s.settings.Get(s.ctx, "printer", "default")
	s.Require().NoError(err)
	s.Equal("default", missing)

	s.Require().NoError(s.settings.Set(s.ctx, "language", "es"))
	s.Require().NoError(s.settings.Set(s.ctx, "printer", "lp0"))

	all, err := s.settings.All(s.ctx)
	s.Require().NoError(err)
	s.Equal("es", all["language"])
	s.Equal("lp0", all["printer"])
	s.Equal("USD", all["currency"])
}

func (s *RepositorySuite) TestUnitOfWork_CommitAndRollback() {
	s.Require().NoError(s.products.Insert(s.ctx, helpers.CreateTestProduct()))

	tx, err := s.uow.Begin(s.ctx)
	s.Require().NoError(err)
	_, err = tx.Products().AdjustStock(s.ctx, "P001", -2)
	s.Require().NoError(err)
	id, err := tx.Sales().NextSaleID(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(tx.Sales().AppendSaleRecord(s.ctx, s.sale(id, line("P001", 2, "10.00"))))
	s.Require().NoError(tx.Rollback(s.ctx))

	found, err := s.products.FindByID(s.ctx, "P001")
	s.Require().NoError(err)
	s.Equal(5, found.Stock)
	records, err := s.sales.ListSaleRecords(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(records)

	tx, err = s.uow.Begin(s.ctx)
	s.Require().NoError(err)
	_, err = tx.Products().AdjustStock(s.ctx, "P001", -2)
	s.Require().NoError(err)
	s.Require().NoError(tx.Sales().AppendSaleRecord(s.ctx, s.sale(1, line("P001", 2, "10.00"))))
	s.Require().NoError(tx.Commit(s.ctx))
	s.NoError(tx.Rollback(s.ctx))

	found, err = s.products.FindByID(s.ctx, "P001")
	s.Require().NoError(err)
	s.Equal(3, found.Stock)
}

func (s *RepositorySuite) TestUnitOfWork_SaleIDsSequentialUnderConcurrency() {
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := context.Background()
			tx, err := s.uow.Begin(ctx)
			if err != nil {
				errs <- err
				return
			}
			defer tx.Rollback(ctx)
			id, err := tx.Sales().NextSaleID(ctx)
			if err != nil {
				errs <- err
				return
			}
			if err := tx.Sales().AppendSaleRecord(ctx, s.sale(id, line("P001", 1, "1.00"))); err != nil {
				errs <- fmt.Errorf("sale %d: %w", id, err)
				return
			}
			errs <- tx.Commit(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}

	records, err := s.sales.ListSaleRecords(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(records, 8)
	seen := make(map[int64]bool)
	for _, r := range records {
		seen[r.SaleID] = true
	}
	for id := int64(1); id <= 8; id++ {
		s.True(seen[id], "missing sale id %d", id)
	}
}

func (s *RepositorySuite) TestImportJobs() {
	now := time.Now().UTC().Truncate(time.Second)
	job := &domain.ImportJob{
		ID:        uuid.NewString(),
		Kind:      domain.JobImportExcel,
		FileName:  "catalog.xlsx",
		Status:    domain.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.jobs.Create(s.ctx, job))

	s.Require().NoError(s.jobs.UpdateStatus(s.ctx, job.ID, domain.JobProcessing, ""))
	got, err := s.jobs.Get(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(domain.JobProcessing, got.Status)
	s.Nil(got.CompletedAt)
	s.Nil(got.Result)

	stats := &domain.ImportStats{RowsRead: 3, Created: 2, Updated: 1, Errors: []string{"row 4: name is required"}}
	s.Require().NoError(s.jobs.Complete(s.ctx, job.ID, domain.JobCompletedWithErrors, stats))
	got, err = s.jobs.Get(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(domain.JobCompletedWithErrors, got.Status)
	s.Require().NotNil(got.Result)
	s.Equal(2, got.Result.Created)
	s.Equal([]string{"row 4: name is required"}, got.Result.Errors)
	s.NotNil(got.CompletedAt)
	s.True(got.Done())

	missing, err := s.jobs.Get(s.ctx, uuid.NewString())
	s.NoError(err)
	s.Nil(missing)
	malformed, err := s.jobs.Get(s.ctx, "not-a-uuid")
	s.NoError(err)
	s.Nil(malformed)

	deleted, err := s.jobs.DeleteFinishedBefore(s.ctx, time.Now().Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)
}

func (s *RepositorySuite) TestMigratorVersion() {
	m, err := db.NewMigrator(&db.MigrationConfig{DatabaseURL: s.testDB.Config.URL()}, helpers.TestLogger())
	s.Require().NoError(err)
	defer m.Close()

	version, dirty, err := m.Version(s.ctx)
	s.Require().NoError(err)
	s.False(dirty)
	s.Equal(uint(4), version)
	s.NoError(m.Up(s.ctx))
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositorySuite))
}
