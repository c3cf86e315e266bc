package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-techshop/apps/api/handler"
	"go-techshop/apps/api/middleware"
	"go-techshop/internal/cache"
	"go-techshop/internal/cart"
	"go-techshop/internal/catalog"
	"go-techshop/internal/checkout"
	"go-techshop/internal/combo"
	"go-techshop/pkg/config"
	"go-techshop/pkg/database"
	"go-techshop/pkg/discovery"
	"go-techshop/pkg/jwt"
	"go-techshop/pkg/mq"
	"go-techshop/pkg/response"
	"go-techshop/pkg/tracer"

	sentinel "github.com/alibaba/sentinel-golang/api"
	"github.com/alibaba/sentinel-golang/core/base"
	"github.com/alibaba/sentinel-golang/core/flow"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const ResCartMutation = "cart_mutation_api"

// initSentinel loads the flow rule guarding cart mutations.
func initSentinel() {
	if err := sentinel.InitDefault(); err != nil {
		log.Fatalf("Failed to init sentinel: %v", err)
	}

	_, err := flow.LoadRules([]*flow.Rule{
		{
			Resource:               ResCartMutation,
			TokenCalculateStrategy: flow.Direct,
			ControlBehavior:        flow.Reject,
			Threshold:              200,
			StatIntervalInMs:       1000,
		},
	})
	if err != nil {
		log.Fatalf("Failed to load sentinel rules: %v", err)
	}
	log.Println("Sentinel flow rule loaded: cart mutation QPS limit = 200")
}

// rateLimit rejects requests above the configured QPS for the resource.
func rateLimit(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, blockErr := sentinel.Entry(resource, sentinel.WithTrafficType(base.Inbound))
		if blockErr != nil {
			response.Error(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		defer entry.Exit()
		c.Next()
	}
}

func main() {
	c, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// env overrides for containerized deployments
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.Mysql.Host = v
		log.Printf("Config Override: MYSQL_HOST used (%s)", v)
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Mysql.Port = p
		}
	}
	if v := os.Getenv("MYSQL_USER"); v != "" {
		c.Mysql.User = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Mysql.Password = v
	}
	if v := os.Getenv("MYSQL_DBNAME"); v != "" {
		c.Mysql.DbName = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		c.Redis.Address = v
		log.Println("Config Override: REDIS_ADDRESS used from env")
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		c.Rabbitmq.Url = v
	}
	if v := os.Getenv("CONSUL_ADDRESS"); v != "" {
		c.Consul.Address = v
	}
	if v := os.Getenv("SERVICE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Service.Port = p
		}
	}

	initSentinel()

	db, err := database.InitMySQL(c.Mysql)
	if err != nil {
		log.Fatalf("Failed to init mysql: %v", err)
	}
	db.AutoMigrate(
		&catalog.Brand{}, &catalog.Category{}, &catalog.Product{}, &catalog.Variant{},
		&combo.Combo{}, &combo.Item{},
		&cart.Entry{},
	)

	rdb, err := database.InitRedis(c.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// failed invalidations go to the reconciliation queue; without a
	// broker they degrade to CRITICAL logs
	var retryQueue cache.RetryQueue
	if c.Rabbitmq.Url != "" {
		publisher, err := mq.NewPublisher(c.Rabbitmq.Url, c.Rabbitmq.RetryQueue)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
		retryQueue = publisher
	}

	if c.Jaeger.Endpoint != "" {
		tp, err := tracer.InitTracer(c.Service.Name, c.Jaeger.Endpoint)
		if err != nil {
			log.Fatalf("Failed to init tracer: %v", err)
		}
		defer tp.Shutdown(context.Background())
	}

	store := cache.NewRedisStore(rdb)
	invalidator := cache.NewInvalidator(store, retryQueue)

	catalogRepo := catalog.NewRepository(db)
	cartService := cart.NewService(cart.NewRepository(db), catalogRepo, store, invalidator)
	comboService := combo.NewService(combo.NewRepository(db), catalogRepo, store, invalidator)
	projector := checkout.NewProjector(catalogRepo)

	tokens := jwt.NewManager(c.Auth.Secret, c.Auth.Issuer)

	cartHandler := handler.NewCartHandler(cartService)
	comboHandler := handler.NewComboHandler(comboService)
	checkoutHandler := handler.NewCheckoutHandler(cartService, comboService, projector)

	r := gin.Default()
	r.Use(otelgin.Middleware(c.Service.Name))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	// public combo reads
	v1.GET("/combos", comboHandler.List)
	v1.GET("/combos/:id", comboHandler.Get)

	authed := v1.Group("", middleware.Auth(tokens))
	{
		authed.GET("/cart", cartHandler.List)
		authed.POST("/cart", rateLimit(ResCartMutation), cartHandler.AddItem)
		authed.PATCH("/cart", rateLimit(ResCartMutation), cartHandler.UpdateQuantity)
		authed.POST("/cart/change-option", rateLimit(ResCartMutation), cartHandler.ChangeVariant)
		authed.DELETE("/cart", rateLimit(ResCartMutation), cartHandler.RemoveItem)
		authed.POST("/cart/checkout", checkoutHandler.Project)
	}

	admin := v1.Group("", middleware.Auth(tokens), middleware.RequireAdmin())
	{
		admin.GET("/combos-management", comboHandler.ListManagement)
		admin.POST("/combos", comboHandler.Create)
		admin.PATCH("/combos/:id", comboHandler.Update)
		admin.DELETE("/combos/:id", comboHandler.Delete)
		admin.POST("/combos/:id/restore", comboHandler.Restore)
	}

	if err := discovery.RegisterService(c.Service.Name, c.Service.Port, c.Consul.Address); err != nil {
		log.Fatalf("Failed to register service: %v", err)
	}

	addr := fmt.Sprintf(":%d", c.Service.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	log.Printf("Techshop API listening on %s", addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
