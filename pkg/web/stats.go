package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/cache"
	"github.com/bookhaven/bookstore/pkg/models"
)

// SiteStats is the read-mostly dashboard snapshot.
type SiteStats struct {
	Books          int64 `json:"books"`
	Orders         int64 `json:"orders"`
	OutOfStock     int64 `json:"outOfStock"`
	PendingOffers  int64 `json:"pendingOffers"`
	PendingReviews int64 `json:"pendingReviews"`
}

// StatsHandler serves counts from the snapshot cache, recomputing when the
// TTL lapses.
func StatsHandler(db *gorm.DB, snapshots *cache.Snapshot, ttl time.Duration) gin.HandlerFunc {
	const key = "site-stats"
	return func(c *gin.Context) {
		if cached, ok := snapshots.Get(key); ok {
			c.JSON(http.StatusOK, cached)
			return
		}

		var stats SiteStats
		db.Model(&models.Book{}).Count(&stats.Books)
		db.Model(&models.Order{}).Count(&stats.Orders)
		db.Model(&models.Book{}).Where("status = ?", models.BookOutOfStock).Count(&stats.OutOfStock)
		db.Model(&models.StockOffer{}).Where("status = ?", models.OfferPending).Count(&stats.PendingOffers)
		db.Model(&models.Review{}).Where("status = ?", models.ReviewPending).Count(&stats.PendingReviews)

		snapshots.Set(key, stats, ttl)
		c.JSON(http.StatusOK, stats)
	}
}
