package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dhaqane/shop-backend/internal/middleware"
	"github.com/dhaqane/shop-backend/internal/model"
	"github.com/dhaqane/shop-backend/internal/repository"
	"github.com/dhaqane/shop-backend/internal/utils"
)

// ContentHandler serves storefront banners and titles.
type ContentHandler struct {
	Banners      BannerStore
	Titles       TitleStore
	ImageBaseURL string
}

type BannerStore interface {
	Create(ctx context.Context, b *model.Banner) error
	List(ctx context.Context) ([]model.Banner, error)
	Update(ctx context.Context, id primitive.ObjectID, p model.BannerPatch) (*model.Banner, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TitleStore interface {
	Create(ctx context.Context, t *model.Title) error
	List(ctx context.Context) ([]model.Title, error)
	Update(ctx context.Context, id primitive.ObjectID, p model.TitlePatch) (*model.Title, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

func NewContentHandler(b BannerStore, t TitleStore, imageBase string) *ContentHandler {
	return &ContentHandler{Banners: b, Titles: t, ImageBaseURL: imageBase}
}

type bannerReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (h *ContentHandler) CreateBanner(c echo.Context) error {
	var req bannerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Image) == "" {
		return fail(c, http.StatusBadRequest, "name and image are required")
	}
	by, _ := middleware.UserID(c)
	b := &model.Banner{Name: strings.TrimSpace(req.Name), Description: req.Description, Image: req.Image, CreatedBy: by}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Banners.Create(ctx, b); err != nil {
		return internalError(c, "create banner", err)
	}
	return created(c, "Banner created successfully", h.banner(b))
}

func (h *ContentHandler) ListBanners(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	bs, err := h.Banners.List(ctx)
	if err != nil {
		return internalError(c, "list banners", err)
	}
	for i := range bs {
		h.banner(&bs[i])
	}
	return list(c, bs)
}

func (h *ContentHandler) UpdateBanner(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Banner not found")
	}
	var p model.BannerPatch
	if msg := decodePatch(c, &p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	b, err := h.Banners.Update(ctx, id, p)
	if err != nil {
		return storeError(c, "update banner", err, repository.ErrBannerNotFound, "Banner not found")
	}
	return success(c, "Banner updated successfully", h.banner(b))
}

func (h *ContentHandler) DeleteBanner(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Banner not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Banners.Delete(ctx, id); err != nil {
		return storeError(c, "delete banner", err, repository.ErrBannerNotFound, "Banner not found")
	}
	return success(c, "Banner deleted successfully", nil)
}

func (h *ContentHandler) banner(b *model.Banner) *model.Banner {
	b.Image = utils.ResolveImageURL(h.ImageBaseURL, b.Image)
	return b
}

type titleReq struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

func (h *ContentHandler) CreateTitle(c echo.Context) error {
	var req titleReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return fail(c, http.StatusBadRequest, "title is required")
	}
	by, _ := middleware.UserID(c)
	t := &model.Title{Title: strings.TrimSpace(req.Title), Subtitle: req.Subtitle, CreatedBy: by}

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Titles.Create(ctx, t); err != nil {
		return internalError(c, "create title", err)
	}
	return created(c, "Title created successfully", t)
}

func (h *ContentHandler) ListTitles(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	ts, err := h.Titles.List(ctx)
	if err != nil {
		return internalError(c, "list titles", err)
	}
	return list(c, ts)
}

func (h *ContentHandler) UpdateTitle(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Title not found")
	}
	var p model.TitlePatch
	if msg := decodePatch(c, &p); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	t, err := h.Titles.Update(ctx, id, p)
	if err != nil {
		return storeError(c, "update title", err, repository.ErrTitleNotFound, "Title not found")
	}
	return success(c, "Title updated successfully", t)
}

func (h *ContentHandler) DeleteTitle(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusNotFound, "Title not found")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Titles.Delete(ctx, id); err != nil {
		return storeError(c, "delete title", err, repository.ErrTitleNotFound, "Title not found")
	}
	return success(c, "Title deleted successfully", nil)
}
