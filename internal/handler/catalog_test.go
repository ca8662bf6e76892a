package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
)

// categoryMem enforces the unique name index the real collection has.
type categoryMem map[primitive.ObjectID]*model.Category

func (m categoryMem) Create(_ context.Context, cat *model.Category) error {
	for _, c := range m {
		if strings.EqualFold(c.Name, cat.Name) {
			return repository.ErrDuplicate
		}
	}
	cat.ID = primitive.NewObjectID()
	m[cat.ID] = cat
	return nil
}

func (m categoryMem) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

func (m categoryMem) List(context.Context) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range m {
		out = append(out, *c)
	}
	return out, nil
}

func (m categoryMem) Update(_ context.Context, id primitive.ObjectID, p model.CategoryPatch) (*model.Category, error) {
	c, ok := m[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	cp := *c
	return &cp, nil
}

func (m categoryMem) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m, id)
	return nil
}

type productMem map[primitive.ObjectID]*model.Product

func (m productMem) Create(_ context.Context, p *model.Product) error {
	p.ID = primitive.NewObjectID()
	cp := *p
	m[p.ID] = &cp
	return nil
}

func (m productMem) GetByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m productMem) List(_ context.Context, category *primitive.ObjectID) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range m {
		if category == nil || p.Category == *category {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m productMem) Update(_ context.Context, id primitive.ObjectID, patch model.ProductPatch) (*model.Product, error) {
	p, ok := m[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	cp := *p
	return &cp, nil
}

func (m productMem) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m, id)
	return nil
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newCatalog() (*CatalogHandler, categoryMem, productMem) {
	cats, prods := categoryMem{}, productMem{}
	return NewCatalogHandler(cats, prods, "https://cdn.example.com/img"), cats, prods
}

func TestCreateCategoryDuplicate(t *testing.T) {
	h, _, _ := newCatalog()
	admin := primitive.NewObjectID()

	rec, err := call(t, h.CreateCategory, http.MethodPost, `{"name":"Kitchen"}`, admin, model.RoleAdmin, "")
	if err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("first create: %d %v %s", rec.Code, err, rec.Body)
	}
	rec, _ = call(t, h.CreateCategory, http.MethodPost, `{"name":"kitchen"}`, admin, model.RoleAdmin, "")
	var body envelope
	decode(t, rec, &body)
	if rec.Code != http.StatusBadRequest || body.Success || body.Error != "Category already exists" {
		t.Errorf("duplicate: %d %+v", rec.Code, body)
	}

	rec, _ = call(t, h.CreateCategory, http.MethodPost, `{"name":"  "}`, admin, model.RoleAdmin, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank name: %d", rec.Code)
	}
}

func TestCreateProductCategoryChecks(t *testing.T) {
	h, cats, prods := newCatalog()
	admin := primitive.NewObjectID()
	cat := &model.Category{ID: primitive.NewObjectID(), Name: "Kitchen"}
	cats[cat.ID] = cat

	cases := []struct {
		name     string
		category string
		want     int
	}{
		{"unknown id", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"malformed id", "kitchen", http.StatusNotFound},
		{"missing", "", http.StatusBadRequest},
		{"known", cat.ID.Hex(), http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := `{"name":"Kettle","price":20,"units":3,"images":["kettle.png"],"category":"` + tc.category + `"}`
			rec, err := call(t, h.CreateProduct, http.MethodPost, body, admin, model.RoleAdmin, "")
			if err != nil {
				t.Fatal(err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d: %s", rec.Code, tc.want, rec.Body)
			}
			if tc.want == http.StatusNotFound {
				var env envelope
				decode(t, rec, &env)
				if env.Error != "Category not found" {
					t.Errorf("error = %q", env.Error)
				}
			}
		})
	}
	if len(prods) != 1 {
		t.Fatalf("stored %d products, want 1", len(prods))
	}

	var got struct {
		Data model.Product `json:"data"`
	}
	for id := range prods {
		rec, _ := call(t, h.GetProduct, http.MethodGet, "", admin, model.RoleAdmin, id.Hex())
		decode(t, rec, &got)
	}
	if len(got.Data.Images) != 1 || got.Data.Images[0] != "https://cdn.example.com/img/kettle.png" {
		t.Errorf("images not resolved: %v", got.Data.Images)
	}
}

func TestUpdateProductUnknownCategory(t *testing.T) {
	h, cats, prods := newCatalog()
	admin := primitive.NewObjectID()
	cat := &model.Category{ID: primitive.NewObjectID(), Name: "Kitchen"}
	cats[cat.ID] = cat
	p := &model.Product{ID: primitive.NewObjectID(), Name: "Kettle", Price: 20, Category: cat.ID}
	prods[p.ID] = p

	rec, _ := call(t, h.UpdateProduct, http.MethodPut, `{"category":"`+primitive.NewObjectID().Hex()+`"}`, admin, model.RoleAdmin, p.ID.Hex())
	var env envelope
	decode(t, rec, &env)
	if rec.Code != http.StatusNotFound || env.Error != "Category not found" {
		t.Errorf("unknown category: %d %+v", rec.Code, env)
	}
	if prods[p.ID].Category != cat.ID {
		t.Error("product moved to a missing category")
	}

	rec, _ = call(t, h.UpdateProduct, http.MethodPut, `{"price":25}`, admin, model.RoleAdmin, p.ID.Hex())
	if rec.Code != http.StatusOK || prods[p.ID].Price != 25 {
		t.Errorf("price update: %d price=%v", rec.Code, prods[p.ID].Price)
	}

	rec, _ = call(t, h.UpdateProduct, http.MethodPut, `{"price":-1}`, admin, model.RoleAdmin, p.ID.Hex())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative price: %d", rec.Code)
	}
	rec, _ = call(t, h.UpdateProduct, http.MethodPut, `{"price":5}`, admin, model.RoleAdmin, primitive.NewObjectID().Hex())
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing product: %d", rec.Code)
	}
}

func TestListProductsByCategory(t *testing.T) {
	h, _, prods := newCatalog()
	kitchen, garden := primitive.NewObjectID(), primitive.NewObjectID()
	for _, c := range []primitive.ObjectID{kitchen, kitchen, garden} {
		id := primitive.NewObjectID()
		prods[id] = &model.Product{ID: id, Name: "p", Category: c}
	}

	count := func(query string) int {
		t.Helper()
		rec, err := call(t, func(c echo.Context) error {
			c.QueryParams().Set("category", query)
			return h.ListProducts(c)
		}, http.MethodGet, "", primitive.NilObjectID, "", "")
		if err != nil {
			t.Fatal(err)
		}
		var body struct {
			Data []model.Product `json:"data"`
		}
		decode(t, rec, &body)
		return len(body.Data)
	}
	if n := count(kitchen.Hex()); n != 2 {
		t.Errorf("kitchen = %d", n)
	}
	if n := count("not-an-id"); n != 0 {
		t.Errorf("malformed filter = %d", n)
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	h, _, _ := newCatalog()
	rec, _ := call(t, h.DeleteCategory, http.MethodDelete, "", primitive.NewObjectID(), model.RoleAdmin, primitive.NewObjectID().Hex())
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}
