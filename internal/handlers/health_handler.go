package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lablabs/shopgraph"
)

// HealthCheck reports that the gateway is up. It does not call the API.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": shopgraph.Version,
	})
}
