package config

import (
	"os"
	"strings"
)

// LowStockAlertsEnabled gates the StockBelowMinimum notification event emitted
// when a consumption batch leaves a part under its reorder threshold.
//
// Set via env:
// - LOW_STOCK_ALERTS=true
func LowStockAlertsEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("LOW_STOCK_ALERTS")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// OutboxDispatchEnabled allows running the API without the notification
// dispatcher goroutine (local dev, integration tests without Pub/Sub).
//
// Set via env:
// - OUTBOX_DISPATCH=false
func OutboxDispatchEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OUTBOX_DISPATCH")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
