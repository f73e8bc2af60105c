package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/cache"
	"github.com/bookhaven/bookstore/pkg/cart"
	"github.com/bookhaven/bookstore/pkg/catalog"
	"github.com/bookhaven/bookstore/pkg/circuitbreaker"
	"github.com/bookhaven/bookstore/pkg/config"
	"github.com/bookhaven/bookstore/pkg/database"
	"github.com/bookhaven/bookstore/pkg/errs"
	"github.com/bookhaven/bookstore/pkg/jobs"
	"github.com/bookhaven/bookstore/pkg/models"
	"github.com/bookhaven/bookstore/pkg/order"
	"github.com/bookhaven/bookstore/pkg/payment"
	"github.com/bookhaven/bookstore/pkg/pricing"
	"github.com/bookhaven/bookstore/pkg/review"
	"github.com/bookhaven/bookstore/pkg/stock"
	"github.com/bookhaven/bookstore/pkg/supply"
	"github.com/bookhaven/bookstore/pkg/support"
	"github.com/bookhaven/bookstore/pkg/web"
	"github.com/bookhaven/bookstore/pkg/wishlist"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "bookstore").Logger()

	cfg := config.Load()

	db, err := database.Connect(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	seedReferenceData(db, logger)

	snapshots := cache.New()
	queue := jobs.NewQueue()

	pricingSvc := pricing.New(db)
	catalogSvc := catalog.New(db, snapshots, cfg.NavCacheTTL, cfg.ReorderLevel, cfg.MaxStockLevel)
	stockSvc := stock.New(db, cfg.ReorderLevel, cfg.MaxStockLevel)
	cartSvc := cart.New(db, pricingSvc)
	orderSvc := order.New(db, pricingSvc, queue, cfg.PendingOrderTTL, logger)
	supplySvc := supply.New(db, cfg.ReorderLevel, cfg.MaxStockLevel, logger)
	reviewSvc := review.New(db)
	wishlistSvc := wishlist.New(db)
	supportSvc := support.New(db)

	breaker := circuitbreaker.New(5, 30*time.Second)
	paymentSvc := payment.New(db, payment.NewSandboxGateway(), breaker, orderSvc, cfg.DefaultCurrency, logger)

	if err := orderSvc.BootstrapExpiry(); err != nil {
		logger.Error().Err(err).Msg("could not re-enqueue pending order expirations")
	}
	stop := make(chan struct{})
	defer close(stop)
	go queue.Run(10*time.Second, stop, logger)

	server := gin.Default()
	server.GET("/manage/health", func(c *gin.Context) {
		if err := database.Ping(db); err != nil {
			errs.JSON(c, err)
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := server.Group("/api/v1")

	// Public storefront, no identity required.
	public := api.Group("")
	catalogPublic := public.Group("")
	pricingPublic := public.Group("")
	reviewPublic := public.Group("")
	supportPublic := public.Group("")
	public.GET("/stats", web.StatsHandler(db, snapshots, cfg.StatsCacheTTL))

	// Authenticated surfaces, identity from headers.
	authed := api.Group("", web.Identity(db))

	admin := authed.Group("/admin", web.RequireRole(models.RoleAdmin))
	staff := authed.Group("/staff", web.RequireRole(models.RoleSupport, models.RoleWarehouse))
	warehouse := authed.Group("/warehouse", web.RequireRole(models.RoleWarehouse))
	logistics := authed.Group("/logistics", web.RequireRole(models.RoleLogistics))
	courier := authed.Group("/courier", web.RequireRole(models.RoleLogistics))
	vendor := authed.Group("/vendor", web.RequireRole(models.RoleVendor))
	moderation := authed.Group("/moderation", web.RequireRole(models.RoleSupport))

	catalogSvc.RegisterRoutes(catalogPublic, admin)
	pricingSvc.RegisterRoutes(pricingPublic, admin)
	cartSvc.RegisterRoutes(authed)
	orderSvc.RegisterRoutes(authed, staff, courier)
	paymentSvc.RegisterRoutes(authed)
	stockSvc.RegisterRoutes(warehouse)
	supplySvc.RegisterRoutes(vendor, admin, logistics, warehouse)
	reviewSvc.RegisterRoutes(reviewPublic, authed, moderation)
	wishlistSvc.RegisterRoutes(authed)
	supportSvc.RegisterRoutes(supportPublic, authed, staff)

	logger.Info().Str("addr", cfg.HTTPAddr).Msg("bookstore starting")
	if err := server.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

// seedReferenceData creates the rows the pipelines assume exist: root
// categories, a warehouse location, and a logistics partner. Idempotent.
func seedReferenceData(db *gorm.DB, logger zerolog.Logger) {
	var categories int64
	db.Model(&models.Category{}).Count(&categories)
	if categories == 0 {
		for _, name := range []string{"Fiction", "Non-Fiction", "Children", "Academic"} {
			db.Create(&models.Category{Name: name, Slug: catalog.Slugify(name), IsActive: true})
		}
		logger.Info().Msg("seeded default categories")
	}

	var warehouses int64
	db.Model(&models.DeliveryLocation{}).Where("is_warehouse = ?", true).Count(&warehouses)
	if warehouses == 0 {
		db.Create(&models.DeliveryLocation{
			Name:        "Central Warehouse",
			Address:     "Plot 12, Industrial Area",
			City:        "Mumbai",
			State:       "Maharashtra",
			Pincode:     "400001",
			IsWarehouse: true,
		})
		logger.Info().Msg("seeded default warehouse location")
	}

	var partners int64
	db.Model(&models.LogisticsPartner{}).Count(&partners)
	if partners == 0 {
		db.Create(&models.LogisticsPartner{
			Name:          "Swift Logistics",
			ContactPerson: "Dispatch Desk",
			Phone:         "9800000000",
			VehicleType:   "van",
			Status:        models.PartnerActive,
		})
		logger.Info().Msg("seeded default logistics partner")
	}

	var deliveryPartners int64
	db.Model(&models.DeliveryPartner{}).Count(&deliveryPartners)
	if deliveryPartners == 0 {
		db.Create(&models.DeliveryPartner{
			Name:               "City Couriers",
			ContactPerson:      "Operations",
			Phone:              "9810000000",
			Status:             "active",
			MaxDailyDeliveries: 50,
		})
		logger.Info().Msg("seeded default delivery partner")
	}
}
