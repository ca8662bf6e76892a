package router

import (
	"github.com/labstack/echo/v4"

	"github.com/dhaqane/shop-backend/internal/handler"
)

// RegisterCatalog registers categories, products and payment methods.
// Reads are public and cached; writes need the admin role and purge the
// cache once they succeed.
func RegisterCatalog(api *echo.Group, c *handler.CatalogHandler, p *handler.PaymentMethodHandler, o Options) {
	write := o.adminWrite()
	read := o.cached()

	// ---- Categories ----
	cat := api.Group("/category")
	cat.POST("/createCategory", c.CreateCategory, write...)
	cat.GET("/getAllCategories", c.ListCategories, read...)
	cat.PUT("/updateCategory/:id", c.UpdateCategory, write...)
	cat.DELETE("/deleteCategory/:id", c.DeleteCategory, write...)

	// ---- Products ----
	prod := api.Group("/product")
	prod.POST("/createProduct", c.CreateProduct, write...)
	prod.GET("/getAllProducts", c.ListProducts, read...)
	prod.GET("/getProduct/:id", c.GetProduct, read...)
	prod.PUT("/updateProduct/:id", c.UpdateProduct, write...)
	prod.DELETE("/deleteProduct/:id", c.DeleteProduct, write...)

	// ---- Payment methods ----
	pay := api.Group("/payment")
	pay.POST("/createPayment", p.Create, write...)
	pay.GET("/getAllPayments", p.List, read...)
	pay.PUT("/updatePayment/:id", p.Update, write...)
	pay.DELETE("/deletePayment/:id", p.Delete, write...)
}

// RegisterContent registers storefront banners and titles.
func RegisterContent(api *echo.Group, h *handler.ContentHandler, o Options) {
	write := o.adminWrite()
	read := o.cached()

	b := api.Group("/banner")
	b.POST("/createBanner", h.CreateBanner, write...)
	b.GET("/getAllBanners", h.ListBanners, read...)
	b.PUT("/updateBanner/:id", h.UpdateBanner, write...)
	b.DELETE("/deleteBanner/:id", h.DeleteBanner, write...)

	t := api.Group("/title")
	t.POST("/createTitle", h.CreateTitle, write...)
	t.GET("/getAllTitles", h.ListTitles, read...)
	t.PUT("/updateTitle/:id", h.UpdateTitle, write...)
	t.DELETE("/deleteTitle/:id", h.DeleteTitle, write...)
}
