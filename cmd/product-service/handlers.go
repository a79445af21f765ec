package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/money"
	prod "github.com/MikeMC777/storefront/internal/product"
)

func newRouter(repo prod.Repository, defaultCurrency string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger("product-service"))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/products", listProductsHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))
	r.PUT("/products/:id/price", updatePriceHandler(repo, defaultCurrency))
	return r
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, ok := httpx.PositiveID(c.Param(name))
	if !ok {
		c.JSON(http.StatusBadRequest, prod.HTTPError{Error: name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// listProductsHandler godoc
// @Summary      List products
// @Description  Paginated catalog with current stock; q filters by name or description.
// @Tags         products
// @Produce      json
// @Param        q       query  string  false  "search text"
// @Param        limit   query  int     false  "page size (max 100)"  default(20)
// @Param        offset  query  int     false  "offset"               default(0)
// @Success      200  {object}  prod.ListResponse
// @Failure      500  {object}  prod.HTTPError
// @Router       /products [get]
func listProductsHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		q := prod.Query{Q: c.Query("q"), Limit: limit, Offset: offset}.Normalize()

		items, err := repo.List(c.Request.Context(), q)
		if err != nil {
			log.Printf("[product] rid=%s list: %v", httpx.RID(c), err)
			c.JSON(http.StatusInternalServerError, prod.HTTPError{Error: "could not list products"})
			return
		}
		views := make([]prod.View, 0, len(items))
		for _, p := range items {
			views = append(views, prod.NewView(p))
		}
		c.JSON(http.StatusOK, prod.ListResponse{Q: q.Q, Limit: q.Limit, Offset: q.Offset, Items: views})
	}
}

// getProductHandler godoc
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "product id"
// @Success      200  {object}  prod.View
// @Failure      400  {object}  prod.HTTPError
// @Failure      404  {object}  prod.HTTPError
// @Router       /products/{id} [get]
func getProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		p, err := repo.GetByID(c.Request.Context(), id)
		if errors.Is(err, prod.ErrNotFound) {
			c.JSON(http.StatusNotFound, prod.HTTPError{Error: "product not found"})
			return
		}
		if err != nil {
			log.Printf("[product] rid=%s get %d: %v", httpx.RID(c), id, err)
			c.JSON(http.StatusInternalServerError, prod.HTTPError{Error: "could not load product"})
			return
		}
		c.JSON(http.StatusOK, prod.NewView(*p))
	}
}

// updatePriceHandler godoc
// @Summary      Change the current price
// @Description  Only affects orders placed afterwards.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      int                      true  "product id"
// @Param        body  body      prod.UpdatePriceRequest  true  "new price"
// @Success      200   {object}  prod.View
// @Failure      400   {object}  prod.HTTPError
// @Failure      404   {object}  prod.HTTPError
// @Router       /products/{id}/price [put]
func updatePriceHandler(repo prod.Repository, defaultCurrency string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var in prod.UpdatePriceRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, prod.HTTPError{Error: "invalid json"})
			return
		}
		if in.Currency == "" {
			in.Currency = defaultCurrency
		}
		price, err := money.Parse(in.Price, in.Currency)
		if err != nil || price.Amount.IsNegative() {
			c.JSON(http.StatusBadRequest, prod.HTTPError{Error: "price must be a non-negative decimal with a valid currency"})
			return
		}

		ctx := c.Request.Context()
		if err := repo.UpdatePrice(ctx, id, price); err != nil {
			if errors.Is(err, prod.ErrNotFound) {
				c.JSON(http.StatusNotFound, prod.HTTPError{Error: "product not found"})
				return
			}
			log.Printf("[product] rid=%s update price %d: %v", httpx.RID(c), id, err)
			c.JSON(http.StatusInternalServerError, prod.HTTPError{Error: "could not update price"})
			return
		}
		p, err := repo.GetByID(ctx, id)
		if err != nil {
			log.Printf("[product] rid=%s reload %d: %v", httpx.RID(c), id, err)
			c.JSON(http.StatusInternalServerError, prod.HTTPError{Error: "could not load product"})
			return
		}
		c.JSON(http.StatusOK, prod.NewView(*p))
	}
}
