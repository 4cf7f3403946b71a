package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/venue_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* cache keys */

// AvailableLots:<venueId>
func AvailableLotsKey(venueId string) string {
	return "AvailableLots:" + venueId
}

// BarStocks:<venueId>:<barId>
func BarStocksKey(venueId string, barId int) string {
	return fmt.Sprintf("BarStocks:%s:%d", venueId, barId)
}

// Compositions:<venueId>
func CompositionsKey(venueId string) string {
	return "Compositions:" + venueId
}

// AssignmentRun:<runId>
func AssignmentRunKey(runId string) string {
	return "AssignmentRun:" + runId
}

// remove a venue's stock-derived caches after a dispatch touched them.
// bar ids are the destinations that received assignments (or returned stock).
func ClearStockCaches(venueId string, barIds []int) error {
	keys := []string{
		AvailableLotsKey(venueId),
		CompositionsKey(venueId),
	}
	for _, barId := range UniqueSlice(barIds) {
		keys = append(keys, BarStocksKey(venueId, barId))
	}
	return config.RemoveRedisKey(keys...)
}
