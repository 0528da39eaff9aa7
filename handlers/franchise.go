package handlers

import (
	"net/http"
	"strconv"

	"pizza-franchise-api/authz"
	"pizza-franchise-api/config"
	"pizza-franchise-api/middleware"
	"pizza-franchise-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateFranchiseRequest struct {
	Name   string `json:"name" binding:"required"`
	Admins []struct {
		Email string `json:"email" binding:"required"`
	} `json:"admins" binding:"required,min=1"`
}

type CreateStoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// loadAdmins fills the franchise's admin list from the users holding a
// franchisee grant scoped to it
func loadAdmins(franchise *models.Franchise) {
	franchise.Admins = []models.UserRef{}
	if franchise.Stores == nil {
		franchise.Stores = []models.Store{}
	}
	var grants []models.RoleGrant
	config.DB.Where("role = ? AND object_id = ?", models.RoleFranchisee, franchise.ID).
		Order("id").Find(&grants)
	for _, g := range grants {
		var user models.User
		if err := config.DB.First(&user, g.UserID).Error; err == nil {
			franchise.Admins = append(franchise.Admins, models.UserRef{
				ID: user.ID, Name: user.Name, Email: user.Email,
			})
		}
	}
}

// ListFranchises returns all franchises with their stores — public
func ListFranchises(c *gin.Context) {
	query := config.DB.Preload("Stores")
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			page, _ := strconv.Atoi(c.Query("page"))
			query = query.Limit(n).Offset(page * n)
		}
	}

	var franchises []models.Franchise
	query.Order("id").Find(&franchises)
	for i := range franchises {
		loadAdmins(&franchises[i])
	}
	c.JSON(http.StatusOK, franchises)
}

// ListFranchisesForUser returns the franchises a user administers.
// Admin callers see every franchise; a caller asking about someone
// else gets an empty list.
func ListFranchisesForUser(c *gin.Context) {
	claims := middleware.GetClaims(c)

	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return
	}

	var franchises []models.Franchise
	if claims.HasRole(models.RoleAdmin) {
		config.DB.Preload("Stores").Order("id").Find(&franchises)
	} else if uint(userID) == claims.UserID {
		var grants []models.RoleGrant
		config.DB.Where("user_id = ? AND role = ?", userID, models.RoleFranchisee).Find(&grants)
		ids := make([]uint, 0, len(grants))
		for _, g := range grants {
			ids = append(ids, g.ObjectID)
		}
		if len(ids) > 0 {
			config.DB.Preload("Stores").Where("id IN ?", ids).Order("id").Find(&franchises)
		}
	}

	if franchises == nil {
		franchises = []models.Franchise{}
	}
	for i := range franchises {
		loadAdmins(&franchises[i])
	}
	c.JSON(http.StatusOK, franchises)
}

// CreateFranchise creates a franchise and grants each named admin a
// franchisee role scoped to it — admin only
func CreateFranchise(c *gin.Context) {
	claims := middleware.GetClaims(c)

	identity := authz.Identity{UserID: claims.UserID, Roles: claims.Roles}
	if err := authz.Authorize(identity, authz.ActionCreateFranchise, authz.Resource{}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "unable to create a franchise"})
		return
	}

	var req CreateFranchiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and admins are required"})
		return
	}

	// Resolve every admin email before any write
	admins := make([]models.User, 0, len(req.Admins))
	for _, a := range req.Admins {
		var user models.User
		if err := config.DB.Where("email = ?", a.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "unknown admin email: " + a.Email})
			return
		}
		admins = append(admins, user)
	}

	var existing models.Franchise
	if result := config.DB.Where("name = ?", req.Name).First(&existing); result.Error == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "franchise name already exists"})
		return
	}

	franchise := models.Franchise{Name: req.Name, Stores: []models.Store{}}
	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&franchise).Error; err != nil {
			return err
		}
		for _, admin := range admins {
			grant := models.RoleGrant{
				UserID:   admin.ID,
				Role:     models.RoleFranchisee,
				ObjectID: franchise.ID,
			}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to create franchise"})
		return
	}

	loadAdmins(&franchise)
	c.JSON(http.StatusOK, franchise)
}

// DeleteFranchise removes a franchise, all its stores, and the
// franchisee grants pointing at it, in one transaction — admin only
func DeleteFranchise(c *gin.Context) {
	claims := middleware.GetClaims(c)

	identity := authz.Identity{UserID: claims.UserID, Roles: claims.Roles}
	if err := authz.Authorize(identity, authz.ActionDeleteFranchise, authz.Resource{}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "unable to delete a franchise"})
		return
	}

	franchiseID, err := strconv.ParseUint(c.Param("franchiseId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid franchise id"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var franchise models.Franchise
		if err := tx.First(&franchise, franchiseID).Error; err != nil {
			return err
		}
		// stores cannot outlive the franchise; readers never see a
		// half-deleted hierarchy
		if err := tx.Where("franchise_id = ?", franchiseID).Delete(&models.Store{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role = ? AND object_id = ?", models.RoleFranchisee, franchiseID).
			Delete(&models.RoleGrant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&franchise).Error
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown franchise"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "franchise deleted"})
}

// CreateStore adds a store under a franchise — admin or that
// franchise's franchisee
func CreateStore(c *gin.Context) {
	claims := middleware.GetClaims(c)

	franchiseID, err := strconv.ParseUint(c.Param("franchiseId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid franchise id"})
		return
	}

	identity := authz.Identity{UserID: claims.UserID, Roles: claims.Roles}
	if err := authz.Authorize(identity, authz.ActionCreateStore, authz.Resource{FranchiseID: uint(franchiseID)}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "unable to create a store"})
		return
	}

	var req CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}

	// The existence check runs inside the same transaction as the
	// insert so a concurrent cascade delete cannot orphan the store
	store := models.Store{FranchiseID: uint(franchiseID), Name: req.Name}
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var franchise models.Franchise
		if err := tx.First(&franchise, franchiseID).Error; err != nil {
			return err
		}
		return tx.Create(&store).Error
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown franchise"})
		return
	}

	c.JSON(http.StatusOK, store)
}

// DeleteStore removes one store from a franchise — admin or that
// franchise's franchisee
func DeleteStore(c *gin.Context) {
	claims := middleware.GetClaims(c)

	franchiseID, err := strconv.ParseUint(c.Param("franchiseId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid franchise id"})
		return
	}
	storeID, err := strconv.ParseUint(c.Param("storeId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid store id"})
		return
	}

	identity := authz.Identity{UserID: claims.UserID, Roles: claims.Roles}
	if err := authz.Authorize(identity, authz.ActionDeleteStore, authz.Resource{FranchiseID: uint(franchiseID)}); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "unable to delete a store"})
		return
	}

	var store models.Store
	if err := config.DB.Where("id = ? AND franchise_id = ?", storeID, franchiseID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown store"})
		return
	}
	if err := config.DB.Delete(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "failed to delete store"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
}
