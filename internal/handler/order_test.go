package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/payment"
	"github.com/dhaqane/shop-backend/internal/repository"
	"github.com/dhaqane/shop-backend/internal/service"
)

// ----- in-memory ports -----

type products map[primitive.ObjectID]*model.Product

func (m products) GetByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, repository.ErrProductNotFound
}

type categories map[primitive.ObjectID]*model.Category

func (m categories) GetByID(_ context.Context, id primitive.ObjectID) (*model.Category, error) {
	if c, ok := m[id]; ok {
		return c, nil
	}
	return nil, repository.ErrCategoryNotFound
}

type methods map[primitive.ObjectID]*model.PaymentMethod

func (m methods) GetByID(_ context.Context, id primitive.ObjectID) (*model.PaymentMethod, error) {
	if pm, ok := m[id]; ok {
		return pm, nil
	}
	return nil, repository.ErrPaymentNotFound
}

// orderMem saves orders and serves populated reads from the same fixture.
type orderMem struct {
	saved   []model.Order
	users   map[primitive.ObjectID]*model.User
	prods   products
	methods methods
}

func (s *orderMem) Save(_ context.Context, o *model.Order) error {
	s.saved = append(s.saved, *o)
	return nil
}

func (s *orderMem) detail(o model.Order) model.OrderDetail {
	d := model.OrderDetail{
		ID: o.ID, User: s.users[o.User], Payment: s.methods[o.Payment],
		Total: o.Total, Note: o.Note, Phone: o.Phone, Status: o.Status, PaymentRef: o.PaymentRef,
	}
	for _, l := range o.Products {
		d.Products = append(d.Products, model.OrderLineDetail{Product: s.prods[l.Product], Quantity: l.Quantity})
	}
	return d
}

func (s *orderMem) FindAll(context.Context) ([]model.OrderDetail, error) {
	out := []model.OrderDetail{}
	for _, o := range s.saved {
		out = append(out, s.detail(o))
	}
	return out, nil
}

func (s *orderMem) FindByUser(_ context.Context, uid primitive.ObjectID) ([]model.OrderDetail, error) {
	out := []model.OrderDetail{}
	for _, o := range s.saved {
		if o.User == uid {
			out = append(out, s.detail(o))
		}
	}
	return out, nil
}

func (s *orderMem) FindByID(_ context.Context, id primitive.ObjectID) (*model.OrderDetail, error) {
	for _, o := range s.saved {
		if o.ID == id {
			d := s.detail(o)
			return &d, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (s *orderMem) Update(_ context.Context, id primitive.ObjectID, p model.OrderPatch) (*model.Order, error) {
	for i := range s.saved {
		if s.saved[i].ID == id {
			if p.Status != nil {
				s.saved[i].Status = *p.Status
			}
			if p.Note != nil {
				s.saved[i].Note = *p.Note
			}
			if p.Phone != nil {
				s.saved[i].Phone = *p.Phone
			}
			o := s.saved[i]
			return &o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (s *orderMem) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range s.saved {
		if s.saved[i].ID == id {
			s.saved = append(s.saved[:i], s.saved[i+1:]...)
			return nil
		}
	}
	return repository.ErrOrderNotFound
}

type fixture struct {
	h       *OrderHandler
	store   *orderMem
	user    *model.User
	product *model.Product
	cash    *model.PaymentMethod
	evc     *model.PaymentMethod
	charges int
}

func newFixture(t *testing.T, gw payment.GatewayFunc) *fixture {
	t.Helper()
	f := &fixture{
		user:    &model.User{ID: primitive.NewObjectID(), Name: "Asha", Email: "asha@example.com", Role: model.RoleUser},
		product: &model.Product{ID: primitive.NewObjectID(), Name: "Kettle", Price: 20},
		cash:    &model.PaymentMethod{ID: primitive.NewObjectID(), Name: "Cash", Type: model.KindCash},
		evc:     &model.PaymentMethod{ID: primitive.NewObjectID(), Name: "EVC Plus", Type: "evc"},
	}
	f.store = &orderMem{
		users:   map[primitive.ObjectID]*model.User{f.user.ID: f.user},
		prods:   products{f.product.ID: f.product},
		methods: methods{f.cash.ID: f.cash, f.evc.ID: f.evc},
	}
	counted := payment.GatewayFunc(func(ctx context.Context, req payment.ChargeRequest) (payment.Result, error) {
		f.charges++
		if gw == nil {
			return payment.Result{Approved: true, TransactionID: "TX-1"}, nil
		}
		return gw(ctx, req)
	})
	wf := service.NewOrderWorkflow(service.WorkflowDeps{
		Products:       f.store.prods,
		Categories:     categories{},
		PaymentMethods: f.store.methods,
		Orders:         f.store,
		Gateway:        counted,
	})
	f.h = NewOrderHandler(wf, f.store)
	return f
}

// call runs h with an identity already established by the auth guard.
func call(t *testing.T, h echo.HandlerFunc, method, body string, uid primitive.ObjectID, role, id string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, uid.Hex())
	c.Set(middleware.ContextRole, role)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	err := h(c)
	return rec, err
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func orderBody(product, pay string, qty int, extra string) string {
	return `{"payment":"` + pay + `","products":[{"product":"` + product + `","quantity":` + strconv.Itoa(qty) + `}],"total":40,"note":"gift","phone":"6123456"` + extra + `}`
}

func TestCreateOrderCash(t *testing.T) {
	f := newFixture(t, nil)
	rec, err := call(t, f.h.Create, http.MethodPost, orderBody(f.product.ID.Hex(), f.cash.ID.Hex(), 2, ""), f.user.ID, model.RoleUser, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var body struct {
		Success bool        `json:"success"`
		Message string      `json:"message"`
		Data    model.Order `json:"data"`
	}
	decode(t, rec, &body)
	if !body.Success || body.Message != "Order created successfully" {
		t.Errorf("envelope: %+v", body)
	}
	o := body.Data
	if o.Total != 40 || len(o.Products) != 1 || o.Products[0].Quantity != 2 || o.Products[0].Product != f.product.ID {
		t.Errorf("order: %+v", o)
	}
	if o.Payment != f.cash.ID || o.User != f.user.ID || o.Status != model.OrderStatusPlaced {
		t.Errorf("order refs: %+v", o)
	}
	if len(f.store.saved) != 1 || f.charges != 0 {
		t.Fatalf("saved=%d charges=%d", len(f.store.saved), f.charges)
	}
}

func TestCreateOrderMissingProduct(t *testing.T) {
	f := newFixture(t, nil)
	for _, ref := range []string{"p1", primitive.NewObjectID().Hex()} {
		rec, err := call(t, f.h.Create, http.MethodPost, orderBody(ref, f.cash.ID.Hex(), 2, ""), f.user.ID, model.RoleUser, "")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d body=%s", ref, rec.Code, rec.Body)
		}
		var body map[string]any
		decode(t, rec, &body)
		if body["success"] != false || body["error"] != "Product not found" {
			t.Errorf("%s: body = %v", ref, body)
		}
	}
	if len(f.store.saved) != 0 {
		t.Fatalf("orders persisted on rejection: %d", len(f.store.saved))
	}
}

func TestCreateOrderDeclined(t *testing.T) {
	f := newFixture(t, func(context.Context, payment.ChargeRequest) (payment.Result, error) {
		return payment.Result{Approved: false, Message: "insufficient funds"}, nil
	})
	rec, err := call(t, f.h.Create, http.MethodPost, orderBody(f.product.ID.Hex(), f.evc.ID.Hex(), 1, ""), f.user.ID, model.RoleUser, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "failed" || body["message"] != "insufficient funds" || body["success"] != false {
		t.Errorf("body = %v", body)
	}
	if len(f.store.saved) != 0 || f.charges != 1 {
		t.Fatalf("saved=%d charges=%d", len(f.store.saved), f.charges)
	}
}

func TestCreateOrderGatewayApproved(t *testing.T) {
	f := newFixture(t, nil)
	rec, _ := call(t, f.h.Create, http.MethodPost, orderBody(f.product.ID.Hex(), f.evc.ID.Hex(), 3, ""), f.user.ID, model.RoleUser, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if len(f.store.saved) != 1 {
		t.Fatalf("saved = %d", len(f.store.saved))
	}
	o := f.store.saved[0]
	if o.Status != model.OrderStatusPaid || o.PaymentRef != "TX-1" || o.Phone != "6123456" || o.Note != "gift" {
		t.Errorf("saved order: %+v", o)
	}
}

func TestCreateOrderValidationAndAuth(t *testing.T) {
	f := newFixture(t, nil)
	other := primitive.NewObjectID().Hex()

	cases := []struct {
		name string
		body string
		role string
		want int
	}{
		{"no products", `{"payment":"` + f.cash.ID.Hex() + `","products":[],"total":1}`, model.RoleUser, http.StatusBadRequest},
		{"zero quantity", orderBody(f.product.ID.Hex(), f.cash.ID.Hex(), 0, ""), model.RoleUser, http.StatusBadRequest},
		{"unknown payment", orderBody(f.product.ID.Hex(), primitive.NewObjectID().Hex(), 1, ""), model.RoleUser, http.StatusNotFound},
		{"unknown category", orderBody(f.product.ID.Hex(), f.cash.ID.Hex(), 1, `,"category":"`+other+`"`), model.RoleUser, http.StatusNotFound},
		{"on behalf of other", orderBody(f.product.ID.Hex(), f.cash.ID.Hex(), 1, `,"user":"`+other+`"`), model.RoleUser, http.StatusForbidden},
		{"bad json", `{"products":`, model.RoleUser, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := call(t, f.h.Create, http.MethodPost, tc.body, f.user.ID, tc.role, "")
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.want, rec.Body)
			}
		})
	}
	if len(f.store.saved) != 0 {
		t.Fatalf("orders persisted on rejection: %d", len(f.store.saved))
	}

	rec, _ := call(t, f.h.Create, http.MethodPost, orderBody(f.product.ID.Hex(), f.cash.ID.Hex(), 1, `,"user":"`+other+`"`), f.user.ID, model.RoleAdmin, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin on behalf: %d %s", rec.Code, rec.Body)
	}
	if f.store.saved[0].User.Hex() != other {
		t.Fatalf("purchaser = %s", f.store.saved[0].User.Hex())
	}
}

func TestOrderReadsRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	if rec, _ := call(t, f.h.Create, http.MethodPost, orderBody(f.product.ID.Hex(), f.cash.ID.Hex(), 2, ""), f.user.ID, model.RoleUser, ""); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}

	rec, _ := call(t, f.h.List, http.MethodGet, "", f.user.ID, model.RoleAdmin, "")
	var all []model.OrderDetail
	decode(t, rec, &all)
	if len(all) != 1 {
		t.Fatalf("getOrders returned %d", len(all))
	}
	got := all[0]
	if got.Total != 40 || got.Phone != "6123456" || got.Note != "gift" {
		t.Errorf("scalars: %+v", got)
	}
	if got.User == nil || got.User.Email != "asha@example.com" || got.Payment == nil || got.Payment.Name != "Cash" {
		t.Errorf("references not populated: %+v", got)
	}
	if len(got.Products) != 1 || got.Products[0].Product == nil || got.Products[0].Product.Name != "Kettle" || got.Products[0].Quantity != 2 {
		t.Errorf("lines: %+v", got.Products)
	}

	rec, _ = call(t, f.h.ListForUser, http.MethodGet, "", f.user.ID, model.RoleUser, f.user.ID.Hex())
	var mine []model.OrderDetail
	decode(t, rec, &mine)
	if rec.Code != http.StatusOK || len(mine) != 1 {
		t.Fatalf("getUserOrder: %d %s", rec.Code, rec.Body)
	}

	rec, _ = call(t, f.h.ListForUser, http.MethodGet, "", primitive.NewObjectID(), model.RoleUser, f.user.ID.Hex())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign getUserOrder: %d", rec.Code)
	}

	id := f.store.saved[0].ID.Hex()
	if rec, _ = call(t, f.h.Get, http.MethodGet, "", f.user.ID, model.RoleUser, id); rec.Code != http.StatusOK {
		t.Fatalf("getOrderById owner: %d", rec.Code)
	}
	if rec, _ = call(t, f.h.Get, http.MethodGet, "", primitive.NewObjectID(), model.RoleUser, id); rec.Code != http.StatusForbidden {
		t.Fatalf("getOrderById stranger: %d", rec.Code)
	}
	if rec, _ = call(t, f.h.Get, http.MethodGet, "", f.user.ID, model.RoleAdmin, "nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("getOrderById bad id: %d", rec.Code)
	}
}

func TestOrderAdminUpdateDelete(t *testing.T) {
	f := newFixture(t, nil)
	call(t, f.h.Create, http.MethodPost, orderBody(f.product.ID.Hex(), f.cash.ID.Hex(), 1, ""), f.user.ID, model.RoleUser, "")
	id := f.store.saved[0].ID.Hex()

	if rec, _ := call(t, f.h.Update, http.MethodPut, `{"status":"lost"}`, f.user.ID, model.RoleAdmin, id); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status: %d", rec.Code)
	}
	if rec, _ := call(t, f.h.Update, http.MethodPut, `{}`, f.user.ID, model.RoleAdmin, id); rec.Code != http.StatusBadRequest {
		t.Errorf("empty patch: %d", rec.Code)
	}
	rec, _ := call(t, f.h.Update, http.MethodPut, `{"status":"shipped"}`, f.user.ID, model.RoleAdmin, id)
	if rec.Code != http.StatusOK || f.store.saved[0].Status != model.OrderStatusShipped || f.store.saved[0].Note != "gift" {
		t.Fatalf("update: %d %+v", rec.Code, f.store.saved[0])
	}

	if rec, _ := call(t, f.h.Delete, http.MethodDelete, "", f.user.ID, model.RoleAdmin, id); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec, _ := call(t, f.h.Delete, http.MethodDelete, "", f.user.ID, model.RoleAdmin, id); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := &HealthHandler{DB: pingFunc(func(context.Context) error { return context.DeadlineExceeded })}
	rec, _ := call(t, h.Health, http.MethodGet, "", primitive.NilObjectID, "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("down: %d", rec.Code)
	}
	h.DB = pingFunc(func(context.Context) error { return nil })
	if rec, _ = call(t, h.Health, http.MethodGet, "", primitive.NilObjectID, "", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("up: %d %q", rec.Code, rec.Body)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
