package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lablabs/shopgraph"
)

// Service is the part of *shopgraph.Client the gateway exposes.
type Service interface {
	CreateOrder(ctx context.Context, params map[string]interface{}, extraFields ...string) (map[string]interface{}, error)
	CreateCustomer(ctx context.Context, params map[string]interface{}, extraFields ...string) (map[string]interface{}, error)
	ConnectMerchant(ctx context.Context, baseURL, vendor string) (*shopgraph.MerchantConnection, error)
	GetCountries(ctx context.Context, extraFields ...string) ([]interface{}, error)
	GetZones(ctx context.Context, countryID string, extraFields ...string) ([]interface{}, error)
	GraphQLRequest(ctx context.Context, query string, variables map[string]interface{}) (map[string]interface{}, error)
}

// ShopHandler serves the SDK operations over JSON.
type ShopHandler struct {
	svc Service
}

// NewShopHandler returns a handler backed by svc.
func NewShopHandler(svc Service) *ShopHandler {
	return &ShopHandler{svc: svc}
}

type createRequest struct {
	Input  map[string]interface{} `json:"input" binding:"required"`
	Fields []string               `json:"fields"`
}

type connectMerchantRequest struct {
	BaseURL string `json:"base_url" binding:"required,url"`
	Vendor  string `json:"vendor" binding:"required"`
}

type graphQLRequest struct {
	Query     string                 `json:"query" binding:"required"`
	Variables map[string]interface{} `json:"variables"`
}

// CreateOrder handles POST /orders.
func (h *ShopHandler) CreateOrder(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&BindError{Err: err})
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), req.Input, req.Fields...)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// CreateCustomer handles POST /customers.
func (h *ShopHandler) CreateCustomer(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&BindError{Err: err})
		return
	}
	customer, err := h.svc.CreateCustomer(c.Request.Context(), req.Input, req.Fields...)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// ConnectMerchant handles POST /merchants/connect.
func (h *ShopHandler) ConnectMerchant(c *gin.Context) {
	var req connectMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&BindError{Err: err})
		return
	}
	conn, err := h.svc.ConnectMerchant(c.Request.Context(), req.BaseURL, req.Vendor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// Countries handles GET /countries?field=...
func (h *ShopHandler) Countries(c *gin.Context) {
	countries, err := h.svc.GetCountries(c.Request.Context(), c.QueryArray("field")...)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// Zones handles GET /countries/:id/zones?field=...
func (h *ShopHandler) Zones(c *gin.Context) {
	zones, err := h.svc.GetZones(c.Request.Context(), c.Param("id"), c.QueryArray("field")...)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones})
}

// GraphQL handles POST /graphql and forwards the document as is.
func (h *ShopHandler) GraphQL(c *gin.Context) {
	var req graphQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(&BindError{Err: err})
		return
	}
	data, err := h.svc.GraphQLRequest(c.Request.Context(), req.Query, req.Variables)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}
