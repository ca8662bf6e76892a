package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
	"github.com/dhaqane/shop-backend/internal/utils"
)

type CategoryStore interface {
	Create(ctx context.Context, cat *model.Category) error
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, id primitive.ObjectID, p model.CategoryPatch) (*model.Category, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductStore lists all products when category is nil.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	List(ctx context.Context, category *primitive.ObjectID) ([]model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, p model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CatalogHandler serves categories and products.  Reads are public;
// writes sit behind the admin guard.
type CatalogHandler struct {
	Categories   CategoryStore
	Products     ProductStore
	ImageBaseURL string
}

func NewCatalogHandler(cats CategoryStore, prods ProductStore, imageBase string) *CatalogHandler {
	return &CatalogHandler{Categories: cats, Products: prods, ImageBaseURL: imageBase}
}

// ----- categories -----

type categoryReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Photo       string `json:"photo"`
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req categoryReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "name is required")
	}
	by, _ := middleware.UserID(c)
	cat := &model.Category{Name: req.Name, Description: req.Description, Photo: req.Photo, CreatedBy: by}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Categories.Create(ctx, cat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return fail(c, http.StatusBadRequest, "Category already exists")
		}
		return internalError(c, "create category", err)
	}
	return created(c, "Category created successfully", h.category(cat))
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	cats, err := h.Categories.List(ctx)
	if err != nil {
		return internalError(c, "list categories", err)
	}
	for i := range cats {
		h.category(&cats[i])
	}
	return list(c, cats)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Category not found")
	}
	var p model.CategoryPatch
	if msg := decodePatch(c, &p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fail(c, http.StatusBadRequest, "name must not be empty")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	cat, err := h.Categories.Update(ctx, id, p)
	if errors.Is(err, repository.ErrDuplicate) {
		return fail(c, http.StatusBadRequest, "Category already exists")
	}
	if err != nil {
		return storeError(c, "update category", err, repository.ErrCategoryNotFound, "Category not found")
	}
	return success(c, "Category updated successfully", h.category(cat))
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Category not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Categories.Delete(ctx, id); err != nil {
		return storeError(c, "delete category", err, repository.ErrCategoryNotFound, "Category not found")
	}
	return success(c, "Category deleted successfully", nil)
}

func (h *CatalogHandler) category(cat *model.Category) *model.Category {
	cat.Photo = utils.ResolveImageURL(h.ImageBaseURL, cat.Photo)
	return cat
}

// ----- products -----

type productReq struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Images      []string   `json:"images"`
	Price       float64    `json:"price"`
	SalePrice   *float64   `json:"salePrice"`
	SaleStarts  *time.Time `json:"saleStarts"`
	SaleEnds    *time.Time `json:"salePriceDate"`
	IsTrending  bool       `json:"isTrending"`
	IsFavourite bool       `json:"isFavourite"`
	Rating      float64    `json:"rating"`
	Units       int        `json:"units"`
	Category    string     `json:"category"`
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Category == "" {
		return fail(c, http.StatusBadRequest, "name and category are required")
	}
	if req.Price < 0 || req.Units < 0 {
		return fail(c, http.StatusBadRequest, "price and units must not be negative")
	}
	catID, err := primitive.ObjectIDFromHex(req.Category)
	if err != nil {
		return fail(c, http.StatusNotFound, "Category not found")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	exists, err := h.Categories.Exists(ctx, catID)
	if err != nil {
		return internalError(c, "check category", err)
	}
	if !exists {
		return fail(c, http.StatusNotFound, "Category not found")
	}

	by, _ := middleware.UserID(c)
	p := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		SaleStarts:  req.SaleStarts,
		SaleEnds:    req.SaleEnds,
		IsTrending:  req.IsTrending,
		IsFavourite: req.IsFavourite,
		Rating:      req.Rating,
		Units:       req.Units,
		Category:    catID,
		CreatedBy:   by,
	}
	if err := h.Products.Create(ctx, p); err != nil {
		return internalError(c, "create product", err)
	}
	return created(c, "Product created successfully", h.product(p))
}

// ListProducts returns every product, or those of ?category=<id>.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	var filter *primitive.ObjectID
	if raw := c.QueryParam("category"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return list(c, []model.Product{})
		}
		filter = &id
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	prods, err := h.Products.List(ctx, filter)
	if err != nil {
		return internalError(c, "list products", err)
	}
	for i := range prods {
		h.product(&prods[i])
	}
	return list(c, prods)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Product not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return storeError(c, "get product", err, repository.ErrProductNotFound, "Product not found")
	}
	return list(c, h.product(p))
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Product not found")
	}
	var p model.ProductPatch
	if msg := decodePatch(c, &p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if (p.Price != nil && *p.Price < 0) || (p.Units != nil && *p.Units < 0) {
		return fail(c, http.StatusBadRequest, "price and units must not be negative")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if p.Category != nil {
		exists, err := h.Categories.Exists(ctx, *p.Category)
		if err != nil {
			return internalError(c, "check category", err)
		}
		if !exists {
			return fail(c, http.StatusNotFound, "Category not found")
		}
	}
	prod, err := h.Products.Update(ctx, id, p)
	if err != nil {
		return storeError(c, "update product", err, repository.ErrProductNotFound, "Product not found")
	}
	return success(c, "Product updated successfully", h.product(prod))
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Product not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Products.Delete(ctx, id); err != nil {
		return storeError(c, "delete product", err, repository.ErrProductNotFound, "Product not found")
	}
	return success(c, "Product deleted successfully", nil)
}

func (h *CatalogHandler) product(p *model.Product) *model.Product {
	p.Images = utils.ResolveImageURLs(h.ImageBaseURL, p.Images)
	return p
}
