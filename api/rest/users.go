package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/itemvault/middleware"
	"github.com/kasuganosora/itemvault/store"
)

const auditUser = "user"

// UserHandler exposes UserStore over HTTP.
type UserHandler struct {
	users *store.UserStore
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *store.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /api/users.
func (h *UserHandler) Create(c *gin.Context) {
	mw.SetAuditTarget(c, auditUser, 0)
	body, ok := bindObject(c)
	if !ok {
		return
	}
	u, err := h.users.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	mw.SetAuditTarget(c, auditUser, u.UserID)
	c.JSON(http.StatusCreated, u)
}

// List handles GET /api/users.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Update handles PUT /api/users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mw.SetAuditTarget(c, auditUser, id)
	body, ok := bindObject(c)
	if !ok {
		return
	}
	u, err := h.users.Update(c.Request.Context(), id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /api/users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	mw.SetAuditTarget(c, auditUser, id)
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userID":  id,
		"message": fmt.Sprintf("User with ID %d deleted successfully.", id),
	})
}
