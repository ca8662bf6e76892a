package handler

import (
	"context"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
)

type cartMem map[primitive.ObjectID]*model.CartItem

func (m cartMem) Create(_ context.Context, it *model.CartItem) error {
	it.ID = primitive.NewObjectID()
	cp := *it
	m[it.ID] = &cp
	return nil
}

func (m cartMem) GetByID(_ context.Context, id primitive.ObjectID) (*model.CartItem, error) {
	it, ok := m[id]
	if !ok {
		return nil, repository.ErrCartItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m cartMem) List(_ context.Context, user *primitive.ObjectID) ([]model.CartItem, error) {
	out := []model.CartItem{}
	for _, it := range m {
		if user == nil || it.User == *user {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m cartMem) SetQuantity(_ context.Context, id primitive.ObjectID, qty int) (*model.CartItem, error) {
	it, ok := m[id]
	if !ok {
		return nil, repository.ErrCartItemNotFound
	}
	it.Quantity = qty
	cp := *it
	return &cp, nil
}

func (m cartMem) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m[id]; !ok {
		return repository.ErrCartItemNotFound
	}
	delete(m, id)
	return nil
}

type cartFixture struct {
	h       *CartHandler
	items   cartMem
	owner   primitive.ObjectID
	other   primitive.ObjectID
	product *model.Product
	entry   primitive.ObjectID
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		items:   cartMem{},
		owner:   primitive.NewObjectID(),
		other:   primitive.NewObjectID(),
		product: &model.Product{ID: primitive.NewObjectID(), Name: "Kettle"},
	}
	f.h = NewCartHandler(f.items, productMem{f.product.ID: f.product})
	f.entry = primitive.NewObjectID()
	f.items[f.entry] = &model.CartItem{ID: f.entry, User: f.owner, Product: f.product.ID, Quantity: 1}
	return f
}

func TestCartCreate(t *testing.T) {
	f := newCartFixture()

	rec, _ := call(t, f.h.Create, http.MethodPost, `{"product":"`+f.product.ID.Hex()+`"}`, f.other, model.RoleUser, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	var body struct {
		Data model.CartItem `json:"data"`
	}
	decode(t, rec, &body)
	if body.Data.User != f.other || body.Data.Quantity != 1 {
		t.Errorf("entry = %+v", body.Data)
	}

	rec, _ = call(t, f.h.Create, http.MethodPost, `{"product":"`+primitive.NewObjectID().Hex()+`","quantity":2}`, f.other, model.RoleUser, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown product: %d", rec.Code)
	}
	rec, _ = call(t, f.h.Create, http.MethodPost, `{"product":"`+f.product.ID.Hex()+`","quantity":-1}`, f.other, model.RoleUser, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative quantity: %d", rec.Code)
	}
}

func TestCartUpdateOwnership(t *testing.T) {
	f := newCartFixture()
	id := f.entry.Hex()

	cases := []struct {
		name string
		uid  primitive.ObjectID
		role string
		want int
	}{
		{"stranger", f.other, model.RoleUser, http.StatusForbidden},
		{"admin", f.other, model.RoleAdmin, http.StatusForbidden},
		{"owner", f.owner, model.RoleUser, http.StatusOK},
	}
	for _, tc := range cases {
		rec, _ := call(t, f.h.Update, http.MethodPut, `{"quantity":4}`, tc.uid, tc.role, id)
		if rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
	if f.items[f.entry].Quantity != 4 {
		t.Errorf("quantity = %d", f.items[f.entry].Quantity)
	}

	rec, _ := call(t, f.h.Update, http.MethodPut, `{"quantity":0}`, f.owner, model.RoleUser, id)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero quantity: %d", rec.Code)
	}
	rec, _ = call(t, f.h.Update, http.MethodPut, `{"quantity":2}`, f.owner, model.RoleUser, primitive.NewObjectID().Hex())
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing entry: %d", rec.Code)
	}
}

func TestCartDeleteOwnerOrAdmin(t *testing.T) {
	f := newCartFixture()

	rec, _ := call(t, f.h.Delete, http.MethodDelete, "", f.other, model.RoleUser, f.entry.Hex())
	var env envelope
	decode(t, rec, &env)
	if rec.Code != http.StatusForbidden || env.Error != "forbidden" {
		t.Errorf("stranger delete: %d %+v", rec.Code, env)
	}
	if _, ok := f.items[f.entry]; !ok {
		t.Fatal("entry removed by a stranger")
	}

	rec, _ = call(t, f.h.Delete, http.MethodDelete, "", f.other, model.RoleAdmin, f.entry.Hex())
	if rec.Code != http.StatusOK {
		t.Errorf("admin delete: %d %s", rec.Code, rec.Body)
	}
	if _, ok := f.items[f.entry]; ok {
		t.Error("entry still present after admin delete")
	}
}

func TestCartListScopedToCaller(t *testing.T) {
	f := newCartFixture()
	id := primitive.NewObjectID()
	f.items[id] = &model.CartItem{ID: id, User: f.other, Product: f.product.ID, Quantity: 3}

	count := func(uid primitive.ObjectID, role string) int {
		t.Helper()
		rec, _ := call(t, f.h.List, http.MethodGet, "", uid, role, "")
		var body struct {
			Data []model.CartItem `json:"data"`
		}
		decode(t, rec, &body)
		return len(body.Data)
	}
	if n := count(f.owner, model.RoleUser); n != 1 {
		t.Errorf("owner sees %d", n)
	}
	if n := count(f.other, model.RoleAdmin); n != 2 {
		t.Errorf("admin sees %d", n)
	}
}
