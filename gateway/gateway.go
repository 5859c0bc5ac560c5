package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/example/pharmacart/pkg/config"
	"github.com/example/pharmacart/pkg/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP surface fronts.
type Services struct {
	Customers *service.CustomerService
	Products  *service.ProductService
	Carts     *service.CartService
	Tokens    *service.TokenService
	Orders    *service.OrderService
}

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	services Services
}

func NewGateway(cfg *config.Config, logger *zap.Logger, services Services, limiter RateLimiter) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(txIDMiddleware())
	router.Use(loggerMiddleware(logger))

	g := &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		services: services,
	}
	g.setupRoutes(limiter)
	return g
}

func (g *Gateway) setupRoutes(limiter RateLimiter) {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 routes, gatekept by rate limit then API key
	v1 := g.router.Group("/api/v1")
	v1.Use(rateLimitMiddleware(limiter, g.config.Security.RequestsPerMinute, g.logger))
	v1.Use(apiKeyMiddleware(g.config.Security.APIKey))
	{
		v1.POST("/customers", g.createCustomer)
		v1.GET("/products", g.searchProducts)

		carts := v1.Group("/carts")
		{
			carts.POST("/items", g.addCartItem)
			carts.GET("/:customerId", g.getCart)
		}

		v1.POST("/tokens", g.createToken)

		orders := v1.Group("/orders")
		{
			orders.POST("", g.createOrder)
			orders.GET("/:id", g.getOrder)
		}
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

func (g *Gateway) Router() *gin.Engine {
	return g.router
}

type createCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"required"`
	Address string `json:"address" binding:"required"`
}

func (g *Gateway) createCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, err := g.services.Customers.Create(c.Request.Context(), service.CreateCustomerInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

func (g *Gateway) searchProducts(c *gin.Context) {
	var minStock *int
	if raw := c.Query("min_stock"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_stock must be an integer"})
			return
		}
		minStock = &v
	}

	products, err := g.services.Products.Search(c.Request.Context(), minStock)
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

type addCartItemRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	ProductID  string `json:"product_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

func (g *Gateway) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart, err := g.services.Carts.AddItem(c.Request.Context(), req.CustomerID, req.ProductID, req.Quantity)
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cart)
}

func (g *Gateway) getCart(c *gin.Context) {
	cart, total, err := g.services.Carts.GetCart(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": cart, "total": total})
}

type createTokenRequest struct {
	CardNumber  string `json:"card_number" binding:"required,numeric,min=13,max=19"`
	CVV         string `json:"cvv" binding:"required,numeric,min=3,max=4"`
	ExpiryMonth int    `json:"expiry_month" binding:"required,min=1,max=12"`
	ExpiryYear  int    `json:"expiry_year" binding:"required"`
	HolderName  string `json:"holder_name" binding:"required"`
}

func (g *Gateway) createToken(c *gin.Context) {
	var req createTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	if req.ExpiryYear < now.Year() ||
		(req.ExpiryYear == now.Year() && req.ExpiryMonth < int(now.Month())) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card is expired"})
		return
	}

	token, err := g.services.Tokens.CreateToken(c.Request.Context(), service.CreateTokenInput{
		CardNumber:  req.CardNumber,
		CVV:         req.CVV,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		HolderName:  req.HolderName,
	})
	if err != nil {
		g.respondError(c, err)
		return
	}

	// Only the token id and the mask ever leave the service.
	c.JSON(http.StatusCreated, gin.H{"token": token.ID, "masked_pan": token.MaskedPan})
}

type createOrderRequest struct {
	CustomerID      string `json:"customer_id" binding:"required"`
	DeliveryAddress string `json:"delivery_address" binding:"required"`
	Token           string `json:"token" binding:"required"`
}

func (g *Gateway) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := g.services.Orders.Checkout(c.Request.Context(), req.CustomerID, req.DeliveryAddress, req.Token)
	if err != nil {
		g.respondError(c, err)
		return
	}

	// A terminal settlement failure is a created order in PAYMENT_FAILED,
	// not an error: order creation already succeeded.
	c.JSON(http.StatusCreated, order)
}

func (g *Gateway) getOrder(c *gin.Context) {
	order, err := g.services.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (g *Gateway) respondError(c *gin.Context, err error) {
	var insufficient *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNoActiveCart):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailRegistered),
		errors.Is(err, service.ErrPhoneRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrOutOfStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTokenRejected):
		// Distinct from validation: the input was fine, this attempt was
		// declined and may be resubmitted.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		g.logger.Error("internal error", zap.Error(err),
			zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
