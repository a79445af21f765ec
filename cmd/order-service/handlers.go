package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/text/currency"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/cart"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/httpx"
	ord "github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/user"
)

// placer is satisfied by *checkout.Placer.
type placer interface {
	Place(ctx context.Context, req checkout.Request) (int64, error)
}

// userDirectory is satisfied by *order.Ext.
type userDirectory interface {
	ValidateUser(ctx context.Context, id int64) (bool, error)
	Authenticate(ctx context.Context, email, password string) (int64, bool, error)
	Register(ctx context.Context, name, email, password, taxID string) (int64, error)
}

type stockLevels interface {
	Levels(ctx context.Context, productIDs []int64) (map[int64]int, error)
}

type deps struct {
	cart      cart.Store
	stock     stockLevels
	addresses address.Repository
	orders    ord.Reader
	placer    placer
	users     userDirectory
	currency  currency.Unit
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger("order-service"))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/login", loginHandler(d.users))
	r.POST("/register", registerHandler(d.users))

	r.POST("/cart", addToCartHandler(d.cart))
	r.GET("/cart", listCartHandler(d.cart, d.stock))
	r.PUT("/cart/clear", clearCartLineHandler(d.cart))
	r.DELETE("/cart/:product_id", removeCartLineHandler(d.cart))

	r.GET("/addresses", listAddressesHandler(d.addresses))

	r.POST("/orders", placeOrderHandler(d.placer, d.users, d.addresses))
	r.GET("/orders/:id", getOrderHandler(d.orders, d.currency))
	r.GET("/orders/:id/items", getOrderItemsHandler(d.orders))
	r.GET("/orders/user/:user_id", listOrdersByUserHandler(d.orders, d.currency))
	return r
}

func storageFailure(c *gin.Context, op string, err error) {
	log.Printf("[order] rid=%s %s: %v", httpx.RID(c), op, err)
	httpx.Abort(c, http.StatusInternalServerError, "internal error")
}

func queryUserID(c *gin.Context) (int64, bool) {
	id, ok := httpx.PositiveID(c.Query("user_id"))
	if !ok {
		httpx.Abort(c, http.StatusBadRequest, "user_id must be a positive integer")
	}
	return id, ok
}

// loginHandler godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      user.LoginPayload  true  "credentials"
// @Success      200   {object}  user.SessionResponse
// @Failure      400   {object}  httpx.ErrorResponse
// @Failure      401   {object}  httpx.ErrorResponse
// @Router       /login [post]
func loginHandler(users userDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.LoginPayload
		if err := c.ShouldBindJSON(&in); err != nil || in.Email == "" || in.Password == "" {
			httpx.Abort(c, http.StatusBadRequest, "email and password are required")
			return
		}
		id, ok, err := users.Authenticate(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			upstreamFailure(c, "authenticate", err)
			return
		}
		if !ok {
			httpx.Abort(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		c.JSON(http.StatusOK, user.SessionResponse{UserID: id})
	}
}

// registerHandler godoc
// @Summary      Register a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      user.RegisterPayload  true  "new user"
// @Success      201   {object}  user.SessionResponse
// @Failure      400   {object}  httpx.ErrorResponse
// @Failure      409   {object}  httpx.ErrorResponse
// @Router       /register [post]
func registerHandler(users userDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RegisterPayload
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json")
			return
		}
		id, err := users.Register(c.Request.Context(), in.Name, in.Email, in.Password, in.TaxID)
		if err != nil {
			upstreamFailure(c, "register", err)
			return
		}
		c.JSON(http.StatusCreated, user.SessionResponse{UserID: id})
	}
}

// upstreamFailure maps a user-service error onto an HTTP answer.
func upstreamFailure(c *gin.Context, op string, err error) {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.InvalidArgument:
		httpx.Abort(c, http.StatusBadRequest, st.Message())
	case codes.AlreadyExists:
		httpx.Abort(c, http.StatusConflict, st.Message())
	case codes.NotFound:
		httpx.Abort(c, http.StatusNotFound, st.Message())
	default:
		log.Printf("[order] rid=%s user-service %s: %v", httpx.RID(c), op, err)
		httpx.Abort(c, http.StatusBadGateway, "user service unavailable")
	}
}

// addToCartHandler godoc
// @Summary      Add to cart
// @Description  Adds quantity to the user's line for the product, creating it if needed. Stock is not checked here.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      cart.AddRequest  true  "line"
// @Success      200   {object}  cart.AddResponse
// @Failure      400   {object}  httpx.ErrorResponse
// @Router       /cart [post]
func addToCartHandler(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cart.AddRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json")
			return
		}
		if in.ProductID <= 0 {
			httpx.Abort(c, http.StatusBadRequest, "product_id must be a positive integer")
			return
		}
		qty, err := store.Upsert(c.Request.Context(), in.UserID, in.ProductID, in.Quantity)
		switch {
		case errors.Is(err, cart.ErrInvalidUser), errors.Is(err, cart.ErrInvalidQuantity):
			httpx.Abort(c, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			storageFailure(c, "cart upsert", err)
			return
		}
		c.JSON(http.StatusOK, cart.AddResponse{ProductID: in.ProductID, Quantity: qty})
	}
}

// listCartHandler godoc
// @Summary      List cart
// @Description  Lines with quantity above zero, in the order they were added, with current price and stock.
// @Tags         cart
// @Produce      json
// @Param        user_id  query     int  true  "user id"
// @Success      200      {array}   cart.LineView
// @Failure      400      {object}  httpx.ErrorResponse
// @Router       /cart [get]
func listCartHandler(store cart.Store, stock stockLevels) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		lines, err := store.List(ctx, userID)
		if err != nil {
			storageFailure(c, "cart list", err)
			return
		}
		lines = cart.Visible(lines)

		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		levels, err := stock.Levels(ctx, ids)
		if err != nil {
			storageFailure(c, "stock levels", err)
			return
		}

		out := make([]cart.LineView, 0, len(lines))
		for _, l := range lines {
			out = append(out, cart.NewLineView(l, levels[l.ProductID]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// clearCartLineHandler godoc
// @Summary      Zero a cart line
// @Description  Sets the quantity to zero and keeps the line. Repeating it is harmless.
// @Tags         cart
// @Accept       json
// @Param        body  body  cart.ClearRequest  true  "line"
// @Success      204
// @Failure      400   {object}  httpx.ErrorResponse
// @Failure      404   {object}  httpx.ErrorResponse
// @Router       /cart/clear [put]
func clearCartLineHandler(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cart.ClearRequest
		if err := c.ShouldBindJSON(&in); err != nil || in.UserID <= 0 || in.ProductID <= 0 {
			httpx.Abort(c, http.StatusBadRequest, "user_id and product_id must be positive integers")
			return
		}
		found, err := store.Clear(c.Request.Context(), in.UserID, in.ProductID)
		if err != nil {
			storageFailure(c, "cart clear", err)
			return
		}
		if !found {
			httpx.Abort(c, http.StatusNotFound, "cart line not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// removeCartLineHandler godoc
// @Summary      Remove a cart line
// @Tags         cart
// @Param        product_id  path   int  true  "product id"
// @Param        user_id     query  int  true  "user id"
// @Success      204
// @Failure      400  {object}  httpx.ErrorResponse
// @Failure      404  {object}  httpx.ErrorResponse
// @Router       /cart/{product_id} [delete]
func removeCartLineHandler(store cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := httpx.PositiveID(c.Param("product_id"))
		if !ok {
			httpx.Abort(c, http.StatusBadRequest, "product_id must be a positive integer")
			return
		}
		userID, ok := queryUserID(c)
		if !ok {
			return
		}
		found, err := store.Remove(c.Request.Context(), userID, productID)
		if err != nil {
			storageFailure(c, "cart remove", err)
			return
		}
		if !found {
			httpx.Abort(c, http.StatusNotFound, "cart line not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// listAddressesHandler godoc
// @Summary      List addresses
// @Tags         addresses
// @Produce      json
// @Param        user_id  query     int  true  "user id"
// @Success      200      {array}   address.Address
// @Failure      400      {object}  httpx.ErrorResponse
// @Router       /addresses [get]
func listAddressesHandler(repo address.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := queryUserID(c)
		if !ok {
			return
		}
		out, err := repo.ListByUser(c.Request.Context(), userID)
		if err != nil {
			storageFailure(c, "list addresses", err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// placeOrderHandler godoc
// @Summary      Place an order
// @Description  Creates the order, copies current prices, decrements stock and zeroes the matching cart lines, all or nothing.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      ord.PlaceOrderRequest  true  "order"
// @Success      201   {object}  ord.PlaceOrderResponse
// @Failure      400   {object}  httpx.ErrorResponse
// @Failure      404   {object}  httpx.ErrorResponse
// @Failure      409   {object}  ord.StockError
// @Failure      500   {object}  httpx.ErrorResponse
// @Router       /orders [post]
func placeOrderHandler(p placer, users userDirectory, addresses address.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in ord.PlaceOrderRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Abort(c, http.StatusBadRequest, "invalid json")
			return
		}
		req := checkout.Request{UserID: in.UserID, AddressID: in.AddressID, Lines: make([]checkout.Line, 0, len(in.Lines))}
		for _, l := range in.Lines {
			req.Lines = append(req.Lines, checkout.Line{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		if err := req.Validate(); err != nil {
			httpx.Abort(c, http.StatusBadRequest, err.Error())
			return
		}

		ctx := c.Request.Context()
		known, err := users.ValidateUser(ctx, req.UserID)
		if err != nil {
			upstreamFailure(c, "validate user", err)
			return
		}
		if !known {
			httpx.Abort(c, http.StatusNotFound, "user not found")
			return
		}
		owned, err := addresses.ListByUser(ctx, req.UserID)
		if err != nil {
			storageFailure(c, "list addresses", err)
			return
		}
		if !slices.ContainsFunc(owned, func(a address.Address) bool { return a.ID == req.AddressID }) {
			httpx.Abort(c, http.StatusNotFound, "address not found")
			return
		}

		id, err := p.Place(ctx, req)
		if err != nil {
			writePlaceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ord.PlaceOrderResponse{OrderID: id})
	}
}

func writePlaceError(c *gin.Context, err error) {
	var stockErr *checkout.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.AbortWithStatusJSON(http.StatusConflict, ord.StockError{
			Error:     "insufficient stock",
			ProductID: stockErr.ProductID,
			Requested: stockErr.Requested,
			Available: stockErr.Available,
		})
	case errors.Is(err, checkout.ErrNotFound):
		httpx.Abort(c, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrInvalidInput):
		httpx.Abort(c, http.StatusBadRequest, err.Error())
	default:
		storageFailure(c, "place order", err)
	}
}

// getOrderHandler godoc
// @Summary      Get order
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "order id"
// @Success      200  {object}  ord.OrderView
// @Failure      400  {object}  httpx.ErrorResponse
// @Failure      404  {object}  httpx.ErrorResponse
// @Router       /orders/{id} [get]
func getOrderHandler(repo ord.Reader, cur currency.Unit) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.PositiveID(c.Param("id"))
		if !ok {
			httpx.Abort(c, http.StatusBadRequest, "id must be a positive integer")
			return
		}
		o, items, err := repo.GetByID(c.Request.Context(), id)
		if errors.Is(err, ord.ErrNotFound) {
			httpx.Abort(c, http.StatusNotFound, "order not found")
			return
		}
		if err != nil {
			storageFailure(c, "get order", err)
			return
		}
		v, err := ord.NewOrderView(*o, items, cur)
		if err != nil {
			storageFailure(c, "order total", err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// getOrderItemsHandler godoc
// @Summary      Get order items
// @Tags         orders
// @Produce      json
// @Param        id   path      int  true  "order id"
// @Success      200  {array}   ord.ItemView
// @Failure      404  {object}  httpx.ErrorResponse
// @Router       /orders/{id}/items [get]
func getOrderItemsHandler(repo ord.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.PositiveID(c.Param("id"))
		if !ok {
			httpx.Abort(c, http.StatusBadRequest, "id must be a positive integer")
			return
		}
		items, err := repo.GetItems(c.Request.Context(), id)
		if errors.Is(err, ord.ErrNotFound) {
			httpx.Abort(c, http.StatusNotFound, "order not found")
			return
		}
		if err != nil {
			storageFailure(c, "get order items", err)
			return
		}
		out := make([]ord.ItemView, 0, len(items))
		for _, it := range items {
			out = append(out, ord.NewItemView(it))
		}
		c.JSON(http.StatusOK, out)
	}
}

// listOrdersByUserHandler godoc
// @Summary      List a user's orders
// @Tags         orders
// @Produce      json
// @Param        user_id  path      int  true   "user id"
// @Param        limit    query     int  false  "page size (max 100)"  default(20)
// @Param        offset   query     int  false  "offset"               default(0)
// @Success      200      {object}  ord.ListResponse
// @Failure      400      {object}  httpx.ErrorResponse
// @Router       /orders/user/{user_id} [get]
func listOrdersByUserHandler(repo ord.Reader, cur currency.Unit) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := httpx.PositiveID(c.Param("user_id"))
		if !ok {
			httpx.Abort(c, http.StatusBadRequest, "user_id must be a positive integer")
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		if offset < 0 {
			offset = 0
		}

		orders, err := repo.ListByUser(c.Request.Context(), userID, limit, offset)
		if err != nil {
			storageFailure(c, "list orders", err)
			return
		}
		resp := ord.ListResponse{Limit: limit, Offset: offset, Items: make([]ord.OrderView, 0, len(orders))}
		for _, o := range orders {
			v, err := ord.NewOrderView(o, nil, cur)
			if err != nil {
				storageFailure(c, "order view", err)
				return
			}
			resp.Items = append(resp.Items, v)
		}
		c.JSON(http.StatusOK, resp)
	}
}
