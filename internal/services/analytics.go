package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ltv-dashboard/internal/models"
	"ltv-dashboard/internal/spreadsheet"
)

const maxWorkers = 4

var ErrNoSources = errors.New("no sales files given")

// Analytics holds the loaded sales dataset and answers filtered queries.
// Every query recomputes from the dataset; nothing derived is cached.
type Analytics struct {
	mu            sync.RWMutex
	dataset       []models.Transaction
	options       models.FilterOptions
	sources       []string
	loadedAt      time.Time
	spend         SpendAverage
	cache         *fileCache
	recordsLoaded atomic.Int64
	logger        *slog.Logger
}

type Option func(*Analytics)

func WithSpendAverage(mode SpendAverage) Option {
	return func(a *Analytics) {
		a.spend = mode
	}
}

// WithCacheDir enables the parsed-file cache under dir.
func WithCacheDir(dir string) Option {
	return func(a *Analytics) {
		if dir != "" {
			a.cache = &fileCache{dir: dir}
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		a.logger = logger
	}
}

func NewAnalytics(opts ...Option) *Analytics {
	a := &Analytics{
		dataset: []models.Transaction{},
		options: models.OptionsFrom(nil),
		spend:   SpendPerBuyer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetData replaces the dataset. Records are ordered by year and month.
func (a *Analytics) SetData(data []models.Transaction) {
	sorted := slices.Clone(data)
	slices.SortStableFunc(sorted, func(x, y models.Transaction) int {
		return cmp.Or(cmp.Compare(x.Year, y.Year), cmp.Compare(x.MonthNumber, y.MonthNumber))
	})
	options := models.OptionsFrom(sorted)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.dataset = sorted
	a.options = options
	a.loadedAt = time.Now()
	a.recordsLoaded.Store(int64(len(sorted)))
}

// LoadFiles reads every sales file concurrently and replaces the dataset
// with their concatenation. Any failing file fails the whole load.
func (a *Analytics) LoadFiles(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return ErrNoSources
	}

	start := time.Now()
	results := make([][]models.Transaction, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, path := range paths {
		g.Go(func() error {
			txs, err := a.loadFile(ctx, path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			results[i] = txs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	a.SetData(slices.Concat(results...))

	a.mu.Lock()
	a.sources = slices.Clone(paths)
	a.mu.Unlock()

	count := a.recordsLoaded.Load()
	a.logger.Info("sales files loaded",
		"files", len(paths),
		"records", count,
		"duration", time.Since(start),
	)
	return nil
}

func (a *Analytics) loadFile(ctx context.Context, path string) ([]models.Transaction, error) {
	if a.cache == nil {
		return a.readFile(ctx, path)
	}

	before, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if txs, err := a.cache.load(path, before); err == nil {
		a.logger.Info("loaded from cache", "file", path, "records", len(txs))
		return txs, nil
	}

	txs, err := a.readFile(ctx, path)
	if err != nil {
		return nil, err
	}

	// Only cache what was parsed from an unchanged file.
	after, err := os.Stat(path)
	if err != nil || !unchanged(before, after) {
		a.logger.Warn("sales file changed while reading, not caching", "file", path)
		return txs, nil
	}
	if err := a.cache.save(path, before, txs); err != nil {
		a.logger.Warn("failed to save cache", "file", path, "error", err)
	}
	return txs, nil
}

func (a *Analytics) readFile(ctx context.Context, path string) ([]models.Transaction, error) {
	a.logger.Info("reading sales file", "file", path)
	txs, err := spreadsheet.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		a.logger.Warn("sales file has no records", "file", path)
	}
	return txs, nil
}

func (a *Analytics) Filter(f models.Filter) []models.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.Transaction, 0, len(a.dataset))
	for _, tx := range a.dataset {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (a *Analytics) SpendAverage() SpendAverage {
	return a.spend
}

func (a *Analytics) LTV(f models.Filter) models.LTVReport {
	return ComputeLTV(a.Filter(f), a.spend)
}

func (a *Analytics) SalesByMonth(f models.Filter) []models.MonthlySales {
	return SalesByMonth(a.Filter(f))
}

func (a *Analytics) RevenueByMonth(f models.Filter) []models.MonthlyRevenue {
	return RevenueByMonth(a.Filter(f))
}

func (a *Analytics) SalesByProduct(f models.Filter) []models.ProductSales {
	return SalesByProduct(a.Filter(f))
}

// Dashboard computes every dashboard view over a single filter pass.
func (a *Analytics) Dashboard(f models.Filter) models.Dashboard {
	txs := a.Filter(f)
	return models.Dashboard{
		LTV:            ComputeLTV(txs, a.spend),
		SalesByMonth:   SalesByMonth(txs),
		RevenueByMonth: RevenueByMonth(txs),
		SalesByProduct: SalesByProduct(txs),
	}
}

func (a *Analytics) FilterOptions() models.FilterOptions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.options
}

// Loaded reports whether a dataset has been set, even an empty one.
func (a *Analytics) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return !a.loadedAt.IsZero()
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count":  len(a.dataset),
		"sources":       a.sources,
		"loaded_at":     a.loadedAt,
		"spend_average": a.spend,
		"months":        len(a.options.Months),
		"years":         len(a.options.Years),
		"platforms":     len(a.options.Platforms),
		"salespeople":   len(a.options.Salespeople),
	}
}
