package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/service"
	apperrors "github.com/stitchline/stitchline-backend/internal/errors"
	"github.com/stitchline/stitchline-backend/internal/middleware"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type SetPriceRequest struct {
	Price float64 `json:"price" binding:"required,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// CreateOrder places a measurement order. Runs behind optional
// authentication: signed-in customers order against their profile, everyone
// else submits guest details.
// POST /api/v1/orders
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.OrderIntakeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	var userID *uint
	if id, exists := middleware.GetUserID(c); exists {
		userID = &id
	}

	order, err := ctrl.orderService.CreateOrder(userID, input)
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			apperrors.RespondWithViolations(c, apperrors.ValidationInvalidInput, ve.Violations)
			return
		}
		var profileErr *service.IncompleteProfileError
		if errors.As(err, &profileErr) {
			apperrors.RespondWithViolations(c, apperrors.ValidationIncompleteProfile, profileErr.Missing)
			return
		}
		switch {
		case errors.Is(err, service.ErrTemplateNotFound):
			apperrors.NotFound(c, apperrors.TemplateNotFound, "Measurement template not found")
		case errors.Is(err, service.ErrAccountExists):
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "An account with this email already exists, please sign in")
		default:
			log.Error("Failed to create order", err, nil)
			apperrors.InternalError(c, "Failed to create order")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
	})
}

// GetMyOrders returns the authenticated customer's orders.
// GET /api/v1/orders
func (ctrl *OrderController) GetMyOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder returns a single order. Customers only see their own; admins see
// any.
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	order, ok := ctrl.loadOrder(c)
	if !ok {
		return
	}

	role, _ := middleware.GetUserRole(c)
	if role != model.RoleAdmin {
		userID, exists := middleware.GetUserID(c)
		if !exists || order.UserID == nil || *order.UserID != userID {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// TrackOrder returns an order looked up by order number and email, so guests
// can follow their order without an account.
// GET /api/v1/orders/track?order_number=...&email=...
func (ctrl *OrderController) TrackOrder(c *gin.Context) {
	orderNumber := c.Query("order_number")
	email := c.Query("email")
	if orderNumber == "" || email == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "order_number and email are required")
		return
	}

	order, err := ctrl.orderService.GetOrderByNumber(orderNumber)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		apperrors.InternalError(c, "Failed to fetch order")
		return
	}

	if order.Email != email && order.GuestEmail != email {
		apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// ListOrders returns a filtered, paginated listing for the admin dashboard.
// GET /api/v1/admin/orders
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts := ctrl.listOptions(c)
	page, err := ctrl.orderService.ListOrders(opts)
	if err != nil {
		log.Error("Failed to list orders", err, nil)
		apperrors.InternalError(c, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, page)
}

// ExportOrders streams the filtered order listing as an xlsx workbook.
// GET /api/v1/admin/orders/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	f, err := ctrl.orderService.ExportOrders(ctrl.listOptions(c))
	if err != nil {
		log.Error("Failed to export orders", err, nil)
		apperrors.InternalError(c, "Failed to export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to write xlsx response", err, nil)
	}
}

func (ctrl *OrderController) listOptions(c *gin.Context) service.OrderListOptions {
	opts := service.OrderListOptions{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		opts.Page = page
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		opts.Limit = limit
	}
	if guestStr := c.Query("is_guest"); guestStr != "" {
		isGuest := guestStr == "true"
		opts.IsGuest = &isGuest
	}
	return opts
}

// SetPrice assigns the quoted price to an order. The response carries the
// order that now holds the price, which is a fresh replacement order when
// the original had already been priced.
// PUT /api/v1/admin/orders/:id/price
func (ctrl *OrderController) SetPrice(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := ctrl.orderID(c)
	if !ok {
		return
	}

	var req SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A price greater than zero is required")
		return
	}

	setBy, _ := c.Get(middleware.UserEmailKey)
	order, err := ctrl.orderService.SetPrice(id, req.Price, fmt.Sprintf("%v", setBy))
	if err != nil {
		if ve, ok := service.AsValidationError(err); ok {
			apperrors.RespondWithViolations(c, apperrors.ValidationInvalidInput, ve.Violations)
			return
		}
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrPriceLocked):
			apperrors.Conflict(c, apperrors.OrderPriceLocked, "This order is already paid, its price can no longer change")
		case errors.Is(err, service.ErrOrderReplaced):
			apperrors.Conflict(c, apperrors.OrderReplaced, "This order was superseded by a replacement, price the replacement instead")
		default:
			log.Error("Failed to set order price", err, map[string]interface{}{
				"order_id": id,
			})
			apperrors.InternalError(c, "Failed to set order price")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// UpdateStatus advances the fulfilment status of an order.
// PUT /api/v1/admin/orders/:id/status
func (ctrl *OrderController) UpdateStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := ctrl.orderID(c)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A status is required")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidStatus):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unknown order status")
		case errors.Is(err, service.ErrInvalidTransition):
			apperrors.Conflict(c, apperrors.OrderInvalidTransition, "The order cannot move to that status")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": id,
			})
			apperrors.InternalError(c, "Failed to update order status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

func (ctrl *OrderController) orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return 0, false
	}
	return uint(id), true
}

func (ctrl *OrderController) loadOrder(c *gin.Context) (*model.MeasurementOrder, bool) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := ctrl.orderID(c)
	if !ok {
		return nil, false
	}

	order, err := ctrl.orderService.GetOrderByID(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return nil, false
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch order")
		return nil, false
	}
	return order, true
}
