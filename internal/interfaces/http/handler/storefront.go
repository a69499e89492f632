package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/application/storefront"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RefreshStatusProvider reports background refresh state
type RefreshStatusProvider interface {
	Status() scheduler.Status
}

// StorefrontHandler handles catalog, cart and order endpoints
type StorefrontHandler struct {
	BaseHandler
	controller *storefront.Controller
	status     RefreshStatusProvider
	location   *time.Location
}

// StorefrontHandlerOption configures a StorefrontHandler
type StorefrontHandlerOption func(*StorefrontHandler)

// WithRefreshStatus exposes the background scheduler in the status endpoint
func WithRefreshStatus(p RefreshStatusProvider) StorefrontHandlerOption {
	return func(h *StorefrontHandler) {
		h.status = p
	}
}

// WithLocation sets the zone used for displayed dates
func WithLocation(loc *time.Location) StorefrontHandlerOption {
	return func(h *StorefrontHandler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(controller *storefront.Controller, opts ...StorefrontHandlerOption) *StorefrontHandler {
	h := &StorefrontHandler{
		controller: controller,
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CatalogStatusResponse describes catalog freshness
type CatalogStatusResponse struct {
	Refreshing  bool              `json:"refreshing"`
	Products    int               `json:"products"`
	LastRefresh *time.Time        `json:"last_refresh,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
	RefreshInfo string            `json:"refresh_info,omitempty"`
	Scheduler   *scheduler.Status `json:"scheduler,omitempty"`
}

// GetStorefront godoc
// @ID           getStorefront
// @Summary      Get storefront view
// @Description  Returns product cards, order summary, totals and refresh info
// @Tags         storefront
// @Produce      json
// @Param        search query string false "Product name filter"
// @Success      200 {object} APIResponse[storefront.View]
// @Router       /storefront [get]
func (h *StorefrontHandler) GetStorefront(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	h.Success(c, h.controller.View(req.Search))
}

// ListCatalog godoc
// @ID           listCatalog
// @Summary      List catalog products
// @Tags         catalog
// @Produce      json
// @Param        search query string false "Product name filter"
// @Success      200 {object} APIResponse[dto.CatalogResponse]
// @Router       /catalog [get]
func (h *StorefrontHandler) ListCatalog(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	state := h.controller.Snapshot()
	h.Success(c, dto.ToCatalogResponse(state.Catalog.Search(req.Search), state.LastRefresh))
}

// RefreshCatalog godoc
// @ID           refreshCatalog
// @Summary      Refresh the catalog now
// @Description  Fetches the catalog, joining a fetch already in flight
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[dto.CatalogResponse]
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /catalog/refresh [post]
func (h *StorefrontHandler) RefreshCatalog(c *gin.Context) {
	if err := h.controller.Refresh(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Warn("Manual catalog refresh failed", zap.Error(err))
		h.HandleErrorWithMessage(c, err, storefront.LoadErrorMessage(err))
		return
	}
	state := h.controller.Snapshot()
	h.Success(c, dto.ToCatalogResponse(state.Catalog.Products(), state.LastRefresh))
}

// GetCatalogStatus godoc
// @ID           getCatalogStatus
// @Summary      Get catalog refresh status
// @Tags         catalog
// @Produce      json
// @Success      200 {object} APIResponse[CatalogStatusResponse]
// @Router       /catalog/status [get]
func (h *StorefrontHandler) GetCatalogStatus(c *gin.Context) {
	view := h.controller.View("")
	state := h.controller.Snapshot()
	resp := CatalogStatusResponse{
		Refreshing:  view.Loading,
		Products:    state.Catalog.Len(),
		LastError:   state.LastError,
		RefreshInfo: view.RefreshInfo,
	}
	if !state.LastRefresh.IsZero() {
		last := state.LastRefresh
		resp.LastRefresh = &last
	}
	if h.status != nil {
		st := h.status.Status()
		resp.Scheduler = &st
	}
	h.Success(c, resp)
}

// GetCart godoc
// @ID           getCart
// @Summary      Get cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[dto.CartResponse]
// @Router       /cart [get]
func (h *StorefrontHandler) GetCart(c *gin.Context) {
	h.Success(c, dto.ToCartResponse(h.controller.Snapshot().Cart))
}

// ApplyCartAction godoc
// @ID           applyCartAction
// @Summary      Change a product quantity
// @Description  Increment or decrement clamps to [0, inventory]; reset clears the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body dto.CartActionRequest true "Cart action"
// @Success      200 {object} APIResponse[dto.CartActionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /cart/actions [post]
func (h *StorefrontHandler) ApplyCartAction(c *gin.Context) {
	var req dto.CartActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	action, err := storefront.ParseCartAction(req.Action, req.Product)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	state, err := h.controller.Dispatch(c.Request.Context(), action)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := dto.CartActionResponse{Cart: dto.ToCartResponse(state.Cart)}
	if action.ProductKey != "" {
		resp.Product = action.ProductKey
		resp.Quantity = state.Cart.CurrentQuantity(action.ProductKey)
	}
	h.Success(c, resp)
}

// ResetCart godoc
// @ID           resetCart
// @Summary      Clear the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[dto.CartResponse]
// @Router       /cart [delete]
func (h *StorefrontHandler) ResetCart(c *gin.Context) {
	state, err := h.controller.Dispatch(c.Request.Context(), storefront.ResetCart())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCartResponse(state.Cart))
}

// SubmitOrder godoc
// @ID           submitOrder
// @Summary      Submit the cart as an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body dto.SubmitOrderRequest true "Order form"
// @Success      201 {object} APIResponse[dto.SubmitOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /orders [post]
func (h *StorefrontHandler) SubmitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.controller.Submit(c.Request.Context(), req.Email)
	if err != nil {
		h.HandleErrorWithMessage(c, err, storefront.SubmitErrorMessage(err))
		return
	}

	h.Created(c, dto.SubmitOrderResponse{
		OrderID: result.OrderID,
		Total:   result.Total.Fixed(),
		Message: "Order submitted. Order ID: " + result.OrderID,
		Warning: result.Warning,
	})
}

// ListOrders godoc
// @ID           listOrders
// @Summary      List past orders
// @Description  Most recent first
// @Tags         orders
// @Produce      json
// @Success      200 {object} APIResponse[storefront.HistoryView]
// @Router       /orders [get]
func (h *StorefrontHandler) ListOrders(c *gin.Context) {
	records, err := h.controller.History(c.Request.Context())
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to load order history", zap.Error(err))
		h.InternalError(c, "Could not load past orders")
		return
	}
	h.Success(c, storefront.ProjectHistory(records, h.location))
}

// ClearOrders godoc
// @ID           clearOrders
// @Summary      Clear past orders
// @Tags         orders
// @Success      204
// @Router       /orders [delete]
func (h *StorefrontHandler) ClearOrders(c *gin.Context) {
	if err := h.controller.ClearHistory(c.Request.Context()); err != nil {
		logger.GetGinLogger(c).Error("Failed to clear order history", zap.Error(err))
		h.InternalError(c, "Could not clear past orders")
		return
	}
	h.NoContent(c)
}

// RegisterRoutes mounts the storefront endpoints under rg
func (h *StorefrontHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/storefront", h.GetStorefront)

	catalog := rg.Group("/catalog")
	catalog.GET("", h.ListCatalog)
	catalog.POST("/refresh", h.RefreshCatalog)
	catalog.GET("/status", h.GetCatalogStatus)

	cart := rg.Group("/cart")
	cart.GET("", h.GetCart)
	cart.POST("/actions", h.ApplyCartAction)
	cart.DELETE("", h.ResetCart)

	orders := rg.Group("/orders")
	orders.POST("", h.SubmitOrder)
	orders.GET("", h.ListOrders)
	orders.DELETE("", h.ClearOrders)
}
