// Package service holds the order workflow: it validates an order's
// references, charges non-cash payment methods through the gateway and
// persists the order only once payment is settled.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dhaqane/shop-backend/internal/logging"
	"github.com/dhaqane/shop-backend/internal/metrics"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/payment"
	"github.com/dhaqane/shop-backend/internal/queue"
	"github.com/dhaqane/shop-backend/internal/repository"
)

// State is a step of a single order placement.
type State string

const (
	StateReceived              State = "received"
	StateValidating            State = "validating"
	StateCashAccepted          State = "cash_accepted"
	StateAwaitingGatewayResult State = "awaiting_gateway_result"
	StatePersisted             State = "persisted"
	StateRejected              State = "rejected"
)

const (
	// storeTimeout bounds each group of store calls a placement makes.
	storeTimeout = 5 * time.Second
	// publishTimeout bounds the background order.placed publish.
	publishTimeout = 3 * time.Second
)

type ProductFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
}

type CategoryFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Category, error)
}

type PaymentMethodFinder interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.PaymentMethod, error)
}

type OrderSaver interface {
	Save(ctx context.Context, o *model.Order) error
}

type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
}

// WorkflowDeps wires the workflow.  Publisher and Metrics may be nil.
type WorkflowDeps struct {
	Products       ProductFinder
	Categories     CategoryFinder
	PaymentMethods PaymentMethodFinder
	Orders         OrderSaver
	Gateway        payment.Gateway
	Publisher      OrderPublisher
	Metrics        *metrics.Metrics
	GatewayTimeout time.Duration
}

type OrderWorkflow struct {
	products   ProductFinder
	categories CategoryFinder
	methods    PaymentMethodFinder
	orders     OrderSaver
	gateway    payment.Gateway
	publisher  OrderPublisher
	metrics    *metrics.Metrics
	timeout    time.Duration
	tracer     trace.Tracer
	now        func() time.Time
	inflight   sync.WaitGroup
}

func NewOrderWorkflow(d WorkflowDeps) *OrderWorkflow {
	timeout := d.GatewayTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OrderWorkflow{
		products:   d.Products,
		categories: d.Categories,
		methods:    d.PaymentMethods,
		orders:     d.Orders,
		gateway:    d.Gateway,
		publisher:  d.Publisher,
		metrics:    d.Metrics,
		timeout:    timeout,
		tracer:     otel.Tracer("shop.order"),
		now:        time.Now,
	}
}

// LineInput is one requested line; Product is the hex id as sent.
type LineInput struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// PlaceOrderInput is a createOrder request after authentication.  Caller
// is the verified token subject.  User, when set, names the purchaser.
type PlaceOrderInput struct {
	Caller        primitive.ObjectID
	CallerIsAdmin bool

	User     string
	Payment  string
	Category string
	Products []LineInput
	Total    *float64
	Note     string
	Phone    string
}

// placement carries what validation resolved.
type placement struct {
	user     primitive.ObjectID
	category *primitive.ObjectID
	method   *model.PaymentMethod
	products []*model.Product
	lines    []model.OrderLine
}

// Place runs one order placement to completion.  On success the order has
// been written exactly once.  Every rejection leaves the store untouched:
// validation problems come back as *ValidationError, gateway declines and
// failures as *PaymentError.  A purchaser other than the caller needs the
// admin role (ErrForbidden).  There are no retries; a gateway timeout is
// a rejection.
func (w *OrderWorkflow) Place(ctx context.Context, in PlaceOrderInput) (*model.Order, error) {
	ctx, span := w.tracer.Start(ctx, "order.place",
		trace.WithAttributes(attribute.Int("order.lines", len(in.Products))))
	defer span.End()

	log := logging.FromContext(ctx).With(zap.String("caller", in.Caller.Hex()))
	transition := func(s State, fields ...zap.Field) {
		span.AddEvent(string(s))
		log.Debug("order state", append([]zap.Field{zap.String("state", string(s))}, fields...)...)
	}
	kind := "unknown"
	reject := func(outcome string, err error) (*model.Order, error) {
		transition(StateRejected, zap.String("reason", err.Error()))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		w.metrics.ObserveOrder(outcome, kind)
		return nil, err
	}

	transition(StateReceived)

	transition(StateValidating)
	vctx, cancel := context.WithTimeout(ctx, storeTimeout)
	p, err := w.validate(vctx, in)
	cancel()
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) || errors.Is(err, ErrForbidden) {
			return reject("rejected_validation", err)
		}
		return reject("error", err)
	}

	order := &model.Order{
		ID:       primitive.NewObjectID(),
		User:     p.user,
		Payment:  p.method.ID,
		Category: p.category,
		Products: p.lines,
		Total:    *in.Total,
		Note:     in.Note,
		Phone:    strings.TrimSpace(in.Phone),
	}

	if p.method.IsCash() {
		kind = model.KindCash
		transition(StateCashAccepted)
		order.Status = model.OrderStatusPlaced
	} else {
		kind = "gateway"
		transition(StateAwaitingGatewayResult, zap.String("method", p.method.Name))
		ref, err := w.charge(ctx, order, p.method)
		if err != nil {
			return reject("rejected_payment", err)
		}
		order.Status = model.OrderStatusPaid
		order.PaymentRef = ref
	}
	span.SetAttributes(attribute.String("order.payment_kind", kind))

	// Detached from the caller: an approved charge always gets its write.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	err = w.orders.Save(sctx, order)
	cancel()
	if err != nil {
		if order.PaymentRef != "" {
			// The customer has been charged but no order exists.
			log.Error("order not saved after successful charge",
				zap.String("order_id", order.ID.Hex()),
				zap.String("payment_ref", order.PaymentRef),
				zap.Error(err))
		}
		return reject("error", fmt.Errorf("save order: %w", err))
	}
	transition(StatePersisted, zap.String("order_id", order.ID.Hex()), zap.String("status", order.Status))
	w.metrics.ObserveOrder("persisted", kind)

	w.publish(ctx, order, p, kind)
	return order, nil
}

// Wait blocks until every background event publish has finished.
func (w *OrderWorkflow) Wait() {
	w.inflight.Wait()
}

// validate checks required fields, then resolves references in a fixed
// order: product lines, legacy category, payment method.  The first
// failure wins.
func (w *OrderWorkflow) validate(ctx context.Context, in PlaceOrderInput) (*placement, error) {
	if len(in.Products) == 0 {
		return nil, invalid("products", "at least one product is required")
	}
	for i, l := range in.Products {
		if strings.TrimSpace(l.Product) == "" {
			return nil, invalid(fmt.Sprintf("products[%d].product", i), "product is required")
		}
		if l.Quantity < 1 {
			return nil, invalid(fmt.Sprintf("products[%d].quantity", i), "quantity must be at least 1")
		}
	}
	if strings.TrimSpace(in.Payment) == "" {
		return nil, invalid("payment", "payment method is required")
	}
	if in.Total == nil {
		return nil, invalid("total", "total is required")
	}
	if *in.Total < 0 {
		return nil, invalid("total", "total must not be negative")
	}

	p := &placement{user: in.Caller}
	if u := strings.TrimSpace(in.User); u != "" {
		id, err := primitive.ObjectIDFromHex(u)
		if err != nil {
			return nil, invalid("user", "invalid user id")
		}
		if id != in.Caller && !in.CallerIsAdmin {
			return nil, ErrForbidden
		}
		p.user = id
	}

	for i, l := range in.Products {
		field := fmt.Sprintf("products[%d].product", i)
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(l.Product))
		if err != nil {
			return nil, notFound(field, "product", "Product not found")
		}
		prod, err := w.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, notFound(field, "product", "Product not found")
			}
			return nil, fmt.Errorf("lookup product: %w", err)
		}
		p.products = append(p.products, prod)
		p.lines = append(p.lines, model.OrderLine{Product: prod.ID, Quantity: l.Quantity})
	}

	if c := strings.TrimSpace(in.Category); c != "" {
		id, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			return nil, notFound("category", "category", "Category not found")
		}
		if _, err := w.categories.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, notFound("category", "category", "Category not found")
			}
			return nil, fmt.Errorf("lookup category: %w", err)
		}
		p.category = &id
	}

	methodID, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.Payment))
	if err != nil {
		return nil, notFound("payment", "payment", "Payment method not found")
	}
	method, err := w.methods.GetByID(ctx, methodID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, notFound("payment", "payment", "Payment method not found")
		}
		return nil, fmt.Errorf("lookup payment method: %w", err)
	}
	p.method = method

	if !method.IsCash() && strings.TrimSpace(in.Phone) == "" {
		return nil, invalid("phone", "phone is required for "+method.Name+" payments")
	}
	return p, nil
}

// charge makes the single gateway attempt for order under the configured
// timeout and returns the gateway's transaction reference.
func (w *OrderWorkflow) charge(ctx context.Context, order *model.Order, method *model.PaymentMethod) (string, error) {
	ctx, span := w.tracer.Start(ctx, "payment.charge",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("payment.method", method.Name)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := w.now()
	res, err := w.gateway.Charge(ctx, payment.ChargeRequest{
		Phone:       order.Phone,
		Amount:      decimal.NewFromFloat(order.Total),
		Reference:   order.ID.Hex(),
		Description: "Order " + order.ID.Hex(),
	})
	elapsed := w.now().Sub(start).Seconds()

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway error")
		logging.FromContext(ctx).Warn("payment gateway call failed", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			w.metrics.ObserveGateway("timeout", elapsed)
			return "", &PaymentError{Reason: "payment gateway timed out", Err: err}
		}
		w.metrics.ObserveGateway("error", elapsed)
		return "", &PaymentError{Reason: "payment gateway unavailable", Err: err}
	case !res.Approved:
		w.metrics.ObserveGateway("declined", elapsed)
		span.SetStatus(codes.Error, "declined")
		reason := res.Message
		if reason == "" {
			reason = "payment declined"
		}
		return "", &PaymentError{Reason: reason}
	}
	w.metrics.ObserveGateway("approved", elapsed)
	return res.TransactionID, nil
}

// publish emits order.placed off the request path.  Failure is logged;
// the order stands.
func (w *OrderWorkflow) publish(ctx context.Context, order *model.Order, p *placement, kind string) {
	if w.publisher == nil {
		return
	}
	lines := make([]queue.EventLine, len(order.Products))
	for i, l := range order.Products {
		lines[i] = queue.EventLine{ProductID: l.Product.Hex(), ProductName: p.products[i].Name, Quantity: l.Quantity}
	}
	ev := queue.OrderPlacedEvent{
		OrderID:       order.ID.Hex(),
		UserID:        order.User.Hex(),
		PaymentMethod: p.method.Name,
		PaymentKind:   kind,
		PaymentRef:    order.PaymentRef,
		Status:        order.Status,
		Lines:         lines,
		Total:         decimal.NewFromFloat(order.Total).StringFixed(2),
		Phone:         order.Phone,
		PlacedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
	}
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := w.publisher.PublishOrderPlaced(pctx, ev); err != nil {
			logging.FromContext(pctx).Warn("order event not published",
				zap.String("order_id", ev.OrderID), zap.Error(err))
		}
	}()
}
