package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"pos_sales/internal/auth"
	"pos_sales/internal/catalog"
	"pos_sales/internal/storage"
)

var (
	// ErrNotFound is returned when a sale with the given ID is not pending.
	ErrNotFound = errors.New("sale not found")
	// ErrInvalidStatus is returned for unknown status filter values.
	ErrInvalidStatus   = errors.New("invalid status value")
	ErrEmptySale       = errors.New("sale has no items")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 10000")
	ErrUnknownProduct  = errors.New("unknown product")
	ErrLineOutOfRange  = errors.New("line index out of range")
	ErrNoIdentity      = errors.New("sale requires an authenticated user")
)

const defaultMirrorTimeout = 10 * time.Second

// Catalog is the product lookup the service prices against.
type Catalog interface {
	List(ctx context.Context) ([]catalog.Product, error)
}

// Mirror receives approved sales after they are stored locally.
type Mirror interface {
	AppendSale(ctx context.Context, sale Sale) error
}

// Service provides the sale lifecycle on top of the snapshot store.
// Lifecycle writes are serialised within the process; separate processes
// sharing a store still race, last writer wins.
type Service struct {
	mu            sync.Mutex
	approved      *storage.Collection[Sale]
	pending       *storage.Collection[Sale]
	catalog       Catalog
	mirror        Mirror
	mirrorTimeout time.Duration
	threshold     int
	logger        *zap.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// SalesMetadata summarises a search result.
type SalesMetadata struct {
	Quantity    int             `json:"quantity"`
	Approved    int             `json:"approved"`
	Rejected    int             `json:"rejected"`
	Pending     int             `json:"pending"`
	Wholesale   int             `json:"wholesale"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Filter narrows a Search. Empty fields match everything.
type Filter struct {
	UserID    string
	Status    string
	Wholesale *bool
}

// Stats is the dashboard summary over approved sales.
type Stats struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	Today       int             `json:"today"`
	Pending     int             `json:"pending"`
	Records     int             `json:"records"`
}

type Option func(*Service)

// WithMirror installs the remote mirror for approved sales.
func WithMirror(m Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

func WithMirrorTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.mirrorTimeout = d
		}
	}
}

// WithThreshold overrides DefaultWholesaleThreshold.
func WithThreshold(n int) Option {
	return func(s *Service) { s.threshold = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(store storage.Store, products Catalog, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		approved:      storage.NewCollection[Sale](store, storage.KeySales),
		pending:       storage.NewCollection[Sale](store, storage.KeyPendingSales),
		catalog:       products,
		mirrorTimeout: defaultMirrorTimeout,
		threshold:     DefaultWholesaleThreshold,
		logger:        logger,
		tracer:        otel.Tracer("pos_sales/internal/sales"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the wholesale threshold in use.
func (s *Service) Threshold() int {
	return s.threshold
}

// Quote prices lines against the current catalog without storing anything.
func (s *Service) Quote(ctx context.Context, lines []Line) (*Draft, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	draft := NewDraft(products, s.threshold)
	for _, line := range lines {
		i := draft.AddLine()
		if err := draft.SetProduct(i, line.ProductID); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		if err := draft.SetQuantity(i, line.Quantity); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return draft, nil
}

// Submit prices lines and records the sale for user. Sales by temp users
// wait in the pending collection; everyone else's are approved at once.
func (s *Service) Submit(ctx context.Context, user auth.Identity, lines []Line) (*Sale, error) {
	ctx, span := s.tracer.Start(ctx, "sales.Submit")
	defer span.End()

	if user.ID == "" {
		return nil, ErrNoIdentity
	}
	if len(lines) == 0 {
		return nil, ErrEmptySale
	}

	draft, err := s.Quote(ctx, lines)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	status := StatusApproved
	if user.Role == auth.RoleTemp {
		status = StatusPending
	}

	sale := &Sale{
		ID:        uuid.NewString(),
		Items:     draft.Items,
		Total:     draft.Total,
		UserID:    user.ID,
		UserName:  user.Name,
		Date:      s.now().UTC(),
		Status:    status,
		Wholesale: draft.Wholesale,
	}

	span.SetAttributes(
		attribute.String("sale.id", sale.ID),
		attribute.String("sale.status", string(sale.Status)),
		attribute.Bool("sale.wholesale", sale.Wholesale),
	)

	target := s.approved
	if status == StatusPending {
		target = s.pending
	}

	if err := s.appendTo(ctx, target, *sale); err != nil {
		s.logger.Error("failed to save sale", zap.String("sale_id", sale.ID), zap.Error(err))
		recordError(span, err)
		return nil, err
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("user_id", sale.UserID),
		zap.String("status", string(sale.Status)),
		zap.Bool("wholesale", sale.Wholesale),
		zap.String("total", sale.Total.String()),
	)

	if sale.Status == StatusApproved {
		s.mirrorSale(ctx, *sale)
	}
	return sale, nil
}

// Approve moves a pending sale into the approved collection.
func (s *Service) Approve(ctx context.Context, saleID string) (*Sale, error) {
	ctx, span := s.tracer.Start(ctx, "sales.Approve", trace.WithAttributes(attribute.String("sale.id", saleID)))
	defer span.End()

	sale, err := s.moveToApproved(ctx, saleID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			recordError(span, err)
		}
		return nil, err
	}

	s.logger.Info("sale approved", zap.String("sale_id", saleID))
	s.mirrorSale(ctx, sale)
	return &sale, nil
}

func (s *Service) moveToApproved(ctx context.Context, saleID string) (Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.pending.Load(ctx)
	if err != nil {
		return Sale{}, fmt.Errorf("failed to load pending sales: %w", err)
	}

	idx := indexOf(pending, saleID)
	if idx < 0 {
		return Sale{}, ErrNotFound
	}

	sale := pending[idx]
	sale.Status = StatusApproved

	approved, err := s.approved.Load(ctx)
	if err != nil {
		return Sale{}, fmt.Errorf("failed to load sales: %w", err)
	}

	// a previous attempt may have stored the approved copy before failing
	// to rewrite the pending list
	if indexOf(approved, saleID) < 0 {
		if err := s.approved.Save(ctx, append(approved, sale)); err != nil {
			s.logger.Error("failed to store approved sale", zap.String("sale_id", saleID), zap.Error(err))
			return Sale{}, fmt.Errorf("failed to save sales: %w", err)
		}
	}

	pending = append(pending[:idx], pending[idx+1:]...)
	if err := s.pending.Save(ctx, pending); err != nil {
		s.logger.Error("failed to update pending sales", zap.String("sale_id", saleID), zap.Error(err))
		return Sale{}, fmt.Errorf("failed to save pending sales: %w", err)
	}
	return sale, nil
}

// Reject drops a pending sale. Nothing of it is retained.
func (s *Service) Reject(ctx context.Context, saleID string) error {
	ctx, span := s.tracer.Start(ctx, "sales.Reject", trace.WithAttributes(attribute.String("sale.id", saleID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.pending.Load(ctx)
	if err != nil {
		recordError(span, err)
		return fmt.Errorf("failed to load pending sales: %w", err)
	}

	idx := indexOf(pending, saleID)
	if idx < 0 {
		return ErrNotFound
	}

	pending = append(pending[:idx], pending[idx+1:]...)
	if err := s.pending.Save(ctx, pending); err != nil {
		s.logger.Error("failed to update pending sales", zap.String("sale_id", saleID), zap.Error(err))
		recordError(span, err)
		return fmt.Errorf("failed to save pending sales: %w", err)
	}

	s.logger.Info("sale rejected", zap.String("sale_id", saleID))
	return nil
}

func (s *Service) ListApproved(ctx context.Context) ([]Sale, error) {
	return s.approved.Load(ctx)
}

func (s *Service) ListPending(ctx context.Context) ([]Sale, error) {
	return s.pending.Load(ctx)
}

// Search filters approved and pending sales and summarises the result.
func (s *Service) Search(ctx context.Context, f Filter) ([]Sale, SalesMetadata, error) {
	var status Status
	if f.Status != "" {
		parsed, err := ParseStatus(f.Status)
		if err != nil {
			s.logger.Warn("invalid status filter provided", zap.String("status_filter", f.Status))
			return nil, SalesMetadata{}, fmt.Errorf("%w: '%s'", ErrInvalidStatus, f.Status)
		}
		status = parsed
	}

	approved, err := s.approved.Load(ctx)
	if err != nil {
		s.logger.Error("failed to get sales from storage", zap.Error(err))
		return nil, SalesMetadata{}, fmt.Errorf("failed to retrieve sales: %w", err)
	}
	pending, err := s.pending.Load(ctx)
	if err != nil {
		s.logger.Error("failed to get pending sales from storage", zap.Error(err))
		return nil, SalesMetadata{}, fmt.Errorf("failed to retrieve pending sales: %w", err)
	}

	results := make([]Sale, 0)
	metadata := SalesMetadata{TotalAmount: decimal.Zero}

	for _, sale := range append(approved, pending...) {
		if f.UserID != "" && sale.UserID != f.UserID {
			continue
		}
		if status != "" && sale.Status != status {
			continue
		}
		if f.Wholesale != nil && sale.Wholesale != *f.Wholesale {
			continue
		}

		results = append(results, sale)

		metadata.Quantity++
		metadata.TotalAmount = metadata.TotalAmount.Add(sale.Total)
		if sale.Wholesale {
			metadata.Wholesale++
		}
		switch sale.Status {
		case StatusApproved:
			metadata.Approved++
		case StatusRejected:
			metadata.Rejected++
		case StatusPending:
			metadata.Pending++
		}
	}

	s.logger.Debug("sales search completed",
		zap.String("user_id_filter", f.UserID),
		zap.String("status_filter", f.Status),
		zap.Int("results_count", len(results)),
	)

	return results, metadata, nil
}

// Stats summarises approved sales; Today counts sales on the same calendar
// day as now in now's location.
// Stats summarises the dashboard. A non-empty userID restricts every
// figure to that user's sales.
func (s *Service) Stats(ctx context.Context, userID string, now time.Time) (Stats, error) {
	approved, err := s.approved.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to retrieve sales: %w", err)
	}
	pending, err := s.pending.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to retrieve pending sales: %w", err)
	}

	stats := Stats{TotalAmount: decimal.Zero}
	for _, sale := range pending {
		if userID == "" || sale.UserID == userID {
			stats.Pending++
		}
	}
	y, m, d := now.Date()
	for _, sale := range approved {
		if userID != "" && sale.UserID != userID {
			continue
		}
		stats.Records++
		stats.TotalAmount = stats.TotalAmount.Add(sale.Total)
		sy, sm, sd := sale.Date.In(now.Location()).Date()
		if sy == y && sm == m && sd == d {
			stats.Today++
		}
	}
	return stats, nil
}

func (s *Service) appendTo(ctx context.Context, c *storage.Collection[Sale], sale Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := c.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sales: %w", err)
	}
	if err := c.Save(ctx, append(existing, sale)); err != nil {
		return fmt.Errorf("failed to save sale: %w", err)
	}
	return nil
}

func (s *Service) mirrorSale(ctx context.Context, sale Sale) {
	if s.mirror == nil {
		return
	}

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mirrorTimeout)
	defer cancel()

	if err := s.mirror.AppendSale(mctx, sale); err != nil {
		s.logger.Warn("could not mirror sale to spreadsheet", zap.String("sale_id", sale.ID), zap.Error(err))
	}
}

func indexOf(sales []Sale, id string) int {
	for i := range sales {
		if sales[i].ID == id {
			return i
		}
	}
	return -1
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
