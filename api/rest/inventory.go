package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/itemvault/middleware"
	"github.com/kasuganosora/itemvault/store"
)

const auditInventory = "inventory"

// InventoryHandler exposes AssociationStore over HTTP.
type InventoryHandler struct {
	inv *store.AssociationStore
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inv *store.AssociationStore) *InventoryHandler {
	return &InventoryHandler{inv: inv}
}

// List handles GET /api/inventory.
func (h *InventoryHandler) List(c *gin.Context) {
	rows, err := h.inv.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": rows})
}

// ListByUser handles GET /api/inventory/users/:userID.
func (h *InventoryHandler) ListByUser(c *gin.Context) {
	userID, ok := paramID(c, "userID")
	if !ok {
		return
	}
	rows, err := h.inv.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": rows})
}

// ListByItem handles GET /api/inventory/items/:itemID.
func (h *InventoryHandler) ListByItem(c *gin.Context) {
	itemID, ok := paramID(c, "itemID")
	if !ok {
		return
	}
	rows, err := h.inv.ListByItem(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": rows})
}

func pairParams(c *gin.Context) (userID, itemID int64, ok bool) {
	if userID, ok = paramID(c, "userID"); !ok {
		return
	}
	itemID, ok = paramID(c, "itemID")
	return
}

// Get handles GET /api/inventory/:userID/:itemID.
func (h *InventoryHandler) Get(c *gin.Context) {
	userID, itemID, ok := pairParams(c)
	if !ok {
		return
	}
	rec, err := h.inv.Get(c.Request.Context(), userID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Upsert handles PUT /api/inventory/:userID/:itemID. It answers 201 when the
// pair did not exist before.
func (h *InventoryHandler) Upsert(c *gin.Context) {
	userID, itemID, ok := pairParams(c)
	if !ok {
		return
	}
	mw.SetAuditTarget(c, auditInventory, itemID)
	body, ok := bindObject(c)
	if !ok {
		return
	}
	up, err := h.inv.UpsertUpdate(c.Request.Context(), userID, itemID, body)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if up.Created {
		status = http.StatusCreated
	}
	c.JSON(status, up)
}

// Delete handles DELETE /api/inventory/:userID/:itemID.
func (h *InventoryHandler) Delete(c *gin.Context) {
	userID, itemID, ok := pairParams(c)
	if !ok {
		return
	}
	mw.SetAuditTarget(c, auditInventory, itemID)
	if err := h.inv.Delete(c.Request.Context(), userID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userID": userID, "itemID": itemID, "message": "Inventory item deleted."})
}
