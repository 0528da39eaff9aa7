package handlers

import (
	"net/http"
	"strconv"

	"pizza-franchise-api/authz"
	"pizza-franchise-api/config"
	"pizza-franchise-api/fulfillment"
	"pizza-franchise-api/middleware"
	"pizza-franchise-api/models"
	"pizza-franchise-api/statemachine"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Factory is the fulfillment collaborator; main wires the HTTP client,
// tests swap in a stub or an httptest-backed client
var Factory fulfillment.Submitter

type AddMenuItemRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
}

// CreateOrderRequest is the strict order-line schema: prices always
// come from the menu, never from the client
type CreateOrderRequest struct {
	FranchiseID uint `json:"franchiseId" binding:"required"`
	StoreID     uint `json:"storeId" binding:"required"`
	Items       []struct {
		MenuID   uint `json:"menuId" binding:"required"`
		Quantity int  `json:"quantity"`
	} `json:"items" binding:"required,min=1"`
}

// GetMenu returns the global menu — public
func GetMenu(c *gin.Context) {
	var menu []models.MenuItem
	config.DB.Order("id").Find(&menu)
	if menu == nil {
		menu = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, menu)
}

// AddMenuItem appends an item to the global menu and returns the full
// updated menu — admin only
func AddMenuItem(c *gin.Context) {
	claims := middleware.GetClaims(c)

	identity := authz.Identity{UserID: claims.UserID, Roles: claims.Roles}
	if err := authz.Authorize(identity, authz.ActionWriteMenu, authz.Resource{}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "unable to add menu item"})
		return
	}

	var req AddMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title is required"})
		return
	}
	if req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "price must be non-negative"})
		return
	}

	item := models.MenuItem{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Price:       req.Price,
	}
	if err := config.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to add menu item"})
		return
	}

	GetMenu(c)
}

// GetOrders returns the caller's orders, oldest first with id tiebreak.
// Admins may read another diner's orders via ?dinerId=.
func GetOrders(c *gin.Context) {
	claims := middleware.GetClaims(c)

	dinerID := claims.UserID
	if q := c.Query("dinerId"); q != "" {
		id, err := strconv.ParseUint(q, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid diner id"})
			return
		}
		dinerID = uint(id)
	}

	identity := authz.Identity{UserID: claims.UserID, Roles: claims.Roles}
	if err := authz.Authorize(identity, authz.ActionReadOrders, authz.Resource{UserID: dinerID}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "unable to read orders"})
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}

	var orders []models.Order
	config.DB.Preload("Items").
		Where("diner_id = ?", dinerID).
		Order("created_at, id").
		Limit(config.ListPerPage).Offset(page * config.ListPerPage).
		Find(&orders)
	if orders == nil {
		orders = []models.Order{}
	}

	c.JSON(http.StatusOK, gin.H{"dinerId": dinerID, "orders": orders, "page": page})
}

// CreateOrder prices an order from the current menu, persists it, and
// hands it to the factory. Factory failure is reported to the caller
// but the order is still recorded, as rejected, for audit.
func CreateOrder(c *gin.Context) {
	claims := middleware.GetClaims(c)

	identity := authz.Identity{UserID: claims.UserID, Roles: claims.Roles}
	if err := authz.Authorize(identity, authz.ActionCreateOrder, authz.Resource{UserID: claims.UserID}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "unable to create an order"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "franchiseId, storeId, and items are required"})
		return
	}

	// The store must belong to the named franchise
	var store models.Store
	if err := config.DB.Where("id = ? AND franchise_id = ?", req.StoreID, req.FranchiseID).First(&store).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "store does not belong to franchise"})
		return
	}

	// Snapshot prices from the live menu; client-sent price fields
	// were never bound
	order := models.Order{
		DinerID:     claims.UserID,
		FranchiseID: req.FranchiseID,
		StoreID:     req.StoreID,
		Status:      models.StatusDraft,
	}
	for _, line := range req.Items {
		var menuItem models.MenuItem
		if err := config.DB.First(&menuItem, line.MenuID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "unknown menu item: " + strconv.FormatUint(uint64(line.MenuID), 10)})
			return
		}
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		order.Items = append(order.Items, models.OrderItem{
			MenuID:      menuItem.ID,
			Description: menuItem.Description,
			Quantity:    qty,
			Price:       menuItem.Price,
		})
		order.TotalPrice += menuItem.Price * float64(qty)
	}

	if err := statemachine.CanTransition(order.Status, models.StatusPriced, statemachine.ActorPipeline); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	order.Status = models.StatusPriced

	// Order and line items are created atomically
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create order"})
		return
	}

	if err := statemachine.CanTransition(order.Status, models.StatusSubmitted, statemachine.ActorPipeline); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	order.Status = models.StatusSubmitted
	config.DB.Model(&order).Update("status", order.Status)

	factoryOrder := fulfillment.FactoryOrder{
		ID:          order.ID,
		DinerID:     order.DinerID,
		FranchiseID: order.FranchiseID,
		StoreID:     order.StoreID,
		TotalPrice:  order.TotalPrice,
	}
	for _, item := range order.Items {
		factoryOrder.Items = append(factoryOrder.Items, fulfillment.FactoryItem{
			MenuID:      item.MenuID,
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	token, err := Factory.Submit(c.Request.Context(), factoryOrder)
	if err != nil {
		if tErr := statemachine.CanTransition(order.Status, models.StatusRejected, statemachine.ActorFactory); tErr == nil {
			order.Status = models.StatusRejected
			config.DB.Model(&order).Update("status", order.Status)
		}
		c.JSON(http.StatusBadGateway, gin.H{"message": "failed to fulfill order at factory"})
		return
	}

	if tErr := statemachine.CanTransition(order.Status, models.StatusFulfilled, statemachine.ActorFactory); tErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": tErr.Error()})
		return
	}
	order.Status = models.StatusFulfilled
	order.FulfillmentJWT = token
	config.DB.Model(&order).Updates(map[string]interface{}{
		"status":          order.Status,
		"fulfillment_jwt": order.FulfillmentJWT,
	})

	c.JSON(http.StatusOK, gin.H{"order": order, "jwt": token})
}
