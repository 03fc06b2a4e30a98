package catalog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "MiniCatalog/catalog"

	defaultPublishTimeout = 2 * time.Second
)

// NewProduct is the caller-supplied part of a product. Price is required in the
// truthy sense: a zero price is rejected.
type NewProduct struct {
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"required"`
	Description string  `json:"description"`
}

type Service struct {
	store   Store
	events  Publisher
	log     *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
	newID   func() string
	now     func() time.Time

	publishTimeout time.Duration
}

type Option func(*Service)

func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }
func WithLogger(l *zap.Logger) Option  { return func(s *Service) { s.log = l } }
func WithMetrics(m *Metrics) Option    { return func(s *Service) { s.metrics = m } }

// WithPublishTimeout bounds how long a write waits on the event publisher.
func WithPublishTimeout(d time.Duration) Option { return func(s *Service) { s.publishTimeout = d } }

// WithIDGenerator replaces the default "p_<uuid>" identity scheme.
func WithIDGenerator(fn func() string) Option { return func(s *Service) { s.newID = fn } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: nopPublisher{},
		log:    zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		newID:  func() string { return "p_" + uuid.NewString() },
		now:    time.Now,

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Service) AddProduct(ctx context.Context, in NewProduct) (p Product, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.AddProduct")
	defer func() { s.finish(ctx, span, "add", err) }()

	if err := validateNewProduct(in); err != nil {
		return Product{}, err
	}

	p = Product{
		ID:          s.newID(),
		Name:        in.Name,
		Price:       in.Price,
		Description: in.Description,
	}
	span.SetAttributes(attribute.String("product.id", p.ID))

	if err := s.store.Create(ctx, p); err != nil {
		return Product{}, storageErr("create", err)
	}

	s.publish(ctx, Event{Type: EventProductCreated, ProductID: p.ID, Product: &p})
	return p, nil
}

func validateNewProduct(in NewProduct) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Msg: err.Error()}
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields, Msg: "name and price are required"}
}

func (s *Service) ListProducts(ctx context.Context) (out []Product, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ListProducts")
	defer func() { s.finish(ctx, span, "list", err) }()

	out, err = s.store.ListAll(ctx)
	if err != nil {
		return nil, storageErr("list", err)
	}
	if out == nil {
		out = []Product{}
	}
	span.SetAttributes(attribute.Int("product.count", len(out)))
	return out, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (p Product, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetProduct", trace.WithAttributes(attribute.String("product.id", id)))
	defer func() { s.finish(ctx, span, "get", err) }()

	if id == "" {
		return Product{}, &ValidationError{Fields: []string{"id"}, Msg: "product id is required"}
	}
	p, err = s.store.Get(ctx, id)
	if err != nil && !isNotFound(err) {
		err = storageErr("get", err)
	}
	return p, err
}

// SearchProducts scans every product and keeps those whose name or description
// contains q, ignoring case. Results keep the store's listing order.
func (s *Service) SearchProducts(ctx context.Context, q string) (out []Product, err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.SearchProducts", trace.WithAttributes(attribute.String("search.query", q)))
	defer func() { s.finish(ctx, span, "search", err) }()

	if q == "" {
		return nil, &ValidationError{Fields: []string{"q"}, Msg: "search query is required"}
	}

	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, storageErr("list", err)
	}

	out = Filter(all, q)
	if s.metrics != nil {
		s.metrics.SearchMatches.Observe(float64(len(out)))
	}
	span.SetAttributes(attribute.Int("search.scanned", len(all)), attribute.Int("search.matched", len(out)))
	return out, nil
}

// Filter returns the products matching q as a case-insensitive substring of the
// name or the description.
func Filter(products []Product, q string) []Product {
	needle := strings.ToLower(q)
	out := make([]Product, 0)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			(p.Description != "" && strings.Contains(strings.ToLower(p.Description), needle)) {
			out = append(out, p)
		}
	}
	return out
}

// DeleteProduct confirms the product exists before removing it, so a missing id
// is reported as ErrNotFound whatever the backend does for absent keys.
func (s *Service) DeleteProduct(ctx context.Context, id string) (err error) {
	ctx, span := s.tracer.Start(ctx, "catalog.DeleteProduct", trace.WithAttributes(attribute.String("product.id", id)))
	defer func() { s.finish(ctx, span, "delete", err) }()

	if id == "" {
		return &ValidationError{Fields: []string{"id"}, Msg: "product id is required"}
	}

	if _, err := s.store.Get(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return storageErr("get", err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return storageErr("delete", err)
	}

	s.publish(ctx, Event{Type: EventProductDeleted, ProductID: id})
	return nil
}

// publish runs after the store write has committed, so it is bounded and its
// failures are only logged.
func (s *Service) publish(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	e.OccurredAt = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish event failed",
			zap.Error(err),
			zap.String("type", e.Type),
			zap.String("product_id", e.ProductID),
		)
	}
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, err error) {
	defer span.End()
	s.metrics.observe(op, err)

	if err == nil || isValidation(err) || isNotFound(err) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
