package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	catalogsvc "storefront/internal/service/catalog"
)

type productList struct {
	Count   int              `json:"count"`
	Results []domain.Product `json:"results"`
}

func newProductList(products []domain.Product) productList {
	if products == nil {
		products = []domain.Product{}
	}
	return productList{Count: len(products), Results: products}
}

func (h *handler) listCategories(c *gin.Context) {
	listings, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": listings})
}

// listProducts serves the storefront: q searches, category filters, and
// neither returns every active product.
func (h *handler) listProducts(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		products []domain.Product
		err      error
	)
	switch q, category := strings.TrimSpace(c.Query("q")), strings.TrimSpace(c.Query("category")); {
	case q != "":
		products, err = h.deps.CatalogSvc.Search(ctx, q)
		if err == nil && category != "" {
			products = filterCategory(products, category)
		}
	case category != "":
		products, err = h.deps.CatalogSvc.GetByCategory(ctx, category)
	default:
		products, err = h.deps.CatalogSvc.GetActive(ctx)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductList(products))
}

func filterCategory(products []domain.Product, category string) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// getProduct hides inactive products from the storefront.
func (h *handler) getProduct(c *gin.Context) {
	p, err := h.deps.CatalogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !p.IsActive {
		h.writeError(c, domain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) adminListProducts(c *gin.Context) {
	products, err := h.deps.CatalogSvc.GetAll(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProductList(products))
}

func (h *handler) adminCreateProduct(c *gin.Context) {
	var draft catalogsvc.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.deps.CatalogSvc.Add(c.Request.Context(), draft)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handler) adminUpdateProduct(c *gin.Context) {
	var patch domain.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.deps.CatalogSvc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) adminDeleteProduct(c *gin.Context) {
	if err := h.deps.CatalogSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
