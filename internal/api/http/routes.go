package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts the gateway routes on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.ShoppingList)
	router.GET("/health", h.Health)
	router.GET("/breaker", h.Breaker)
}
