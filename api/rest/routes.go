package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/itemvault/middleware"
	"golang.org/x/time/rate"
)

// Handlers groups every REST handler mounted by RegisterRoutes.
type Handlers struct {
	Items     *ItemHandler
	Users     *UserHandler
	Inventory *InventoryHandler
	Admin     *AdminHandler
}

// RouteOptions tunes the middleware RegisterRoutes puts in front of the
// handlers.
type RouteOptions struct {
	// Auditor records every mutating route. Nil disables recording.
	Auditor mw.Auditor
	// AdminIPs are the only addresses /api/admin answers.
	AdminIPs []string
	// WriteRPS and WriteBurst bound each client's writes per route and item
	// variant. A non-positive WriteRPS turns the limit off.
	WriteRPS   float64
	WriteBurst int
}

// RegisterRoutes mounts /health and the /api tree on r.
func RegisterRoutes(r *gin.Engine, h Handlers, opts RouteOptions) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	write := mw.WriteLimit(rate.Limit(opts.WriteRPS), opts.WriteBurst)
	audited := func(action string) []gin.HandlerFunc {
		return []gin.HandlerFunc{write, mw.Audit(opts.Auditor, action)}
	}

	api := r.Group("/api")

	items := api.Group("/items")
	items.GET("", h.Items.List)
	items.POST("/:type", append(audited("item.create"), h.Items.Create)...)
	items.GET("/:type/:id", h.Items.Get)
	items.PUT("/:type/:id", append(audited("item.update"), h.Items.Update)...)
	items.DELETE("/:type/:id", append(audited("item.delete"), h.Items.Delete)...)

	users := api.Group("/users")
	users.GET("", h.Users.List)
	users.POST("", append(audited("user.create"), h.Users.Create)...)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", append(audited("user.update"), h.Users.Update)...)
	users.DELETE("/:id", append(audited("user.delete"), h.Users.Delete)...)

	inv := api.Group("/inventory")
	inv.GET("", h.Inventory.List)
	inv.GET("/users/:userID", h.Inventory.ListByUser)
	inv.GET("/items/:itemID", h.Inventory.ListByItem)
	inv.GET("/:userID/:itemID", h.Inventory.Get)
	inv.PUT("/:userID/:itemID", append(audited("inventory.upsert"), h.Inventory.Upsert)...)
	inv.DELETE("/:userID/:itemID", append(audited("inventory.delete"), h.Inventory.Delete)...)

	if h.Admin != nil {
		admin := api.Group("/admin", mw.IPWhitelist(opts.AdminIPs))
		admin.GET("/integrity", h.Admin.Integrity)
		admin.POST("/integrity/sweep", h.Admin.RunSweep)
		admin.GET("/scheduler", h.Admin.ListSchedulerTasks)
		admin.GET("/audit", h.Admin.AuditLog)
	}
}
