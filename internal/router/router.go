package router

import (
	"github.com/fiberbendr/OurShopper/internal/config"
	"github.com/fiberbendr/OurShopper/internal/handler"
	"github.com/fiberbendr/OurShopper/internal/notify"
	"github.com/fiberbendr/OurShopper/internal/store"
	"github.com/fiberbendr/OurShopper/internal/ws"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin engine and the route table. The hub and
// notifier are owned by the caller; handlers only borrow them.
func SetupRouter(cfg *config.Config, st store.Store, hub *ws.Hub, notifier *notify.Notifier) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// push channel for real-time syncing
	r.GET("/ws", func(c *gin.Context) {
		hub.HandleConn(c.Writer, c.Request)
	})

	// ====== API ======
	api := r.Group("/api")

	purchaseHandler := handler.NewPurchaseHandler(st, hub, notifier)
	api.GET("/purchases", purchaseHandler.ListPurchases)
	api.POST("/purchases", purchaseHandler.CreatePurchase)
	api.DELETE("/purchases/:id", purchaseHandler.DeletePurchase)

	exportHandler := handler.NewExportHandler(st)
	api.GET("/purchases/export/csv", exportHandler.ExportCSV)
	api.GET("/purchases/export/xlsx", exportHandler.ExportXLSX)

	return r
}
