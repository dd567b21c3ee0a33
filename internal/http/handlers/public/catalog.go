package public

import (
	"strconv"

	"github.com/tokonext/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表，可按分类筛选
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var categoryID uint
	if raw := c.Query("category_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		categoryID = uint(parsed)
	}

	products, total, err := h.CatalogService.ListProducts(categoryID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.CatalogService.GetProduct(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.catalog_fetch_failed")
		return
	}
	response.Success(c, product)
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.catalog_fetch_failed", err)
		return
	}
	response.Success(c, categories)
}

// GetVariantStock 查询规格库存
func (h *Handler) GetVariantStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	stock, err := h.CatalogService.GetVariantStock(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "error.catalog_fetch_failed")
		return
	}
	response.Success(c, stock)
}
