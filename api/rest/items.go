package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/itemvault/middleware"
	"github.com/kasuganosora/itemvault/store"
)

// ItemHandler exposes EntityStore over HTTP.
type ItemHandler struct {
	items *store.EntityStore
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items *store.EntityStore) *ItemHandler {
	return &ItemHandler{items: items}
}

// Create handles POST /api/items/:type.
func (h *ItemHandler) Create(c *gin.Context) {
	tag, ok := paramTag(c)
	if !ok {
		return
	}
	mw.SetAuditTarget(c, string(tag), 0)
	body, ok := bindObject(c)
	if !ok {
		return
	}
	res, err := h.items.Create(c.Request.Context(), tag, body)
	if err != nil {
		respondError(c, err)
		return
	}
	mw.SetAuditTarget(c, string(tag), res.ItemID)
	c.JSON(http.StatusCreated, res)
}

// List handles GET /api/items.
func (h *ItemHandler) List(c *gin.Context) {
	all, err := h.items.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// Get handles GET /api/items/:type/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	tag, ok := paramTag(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rec, err := h.items.Get(c.Request.Context(), tag, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Update handles PUT /api/items/:type/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	tag, ok := paramTag(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mw.SetAuditTarget(c, string(tag), id)
	body, ok := bindObject(c)
	if !ok {
		return
	}
	res, err := h.items.Update(c.Request.Context(), tag, id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /api/items/:type/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
	tag, ok := paramTag(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mw.SetAuditTarget(c, string(tag), id)
	res, err := h.items.Delete(c.Request.Context(), tag, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
