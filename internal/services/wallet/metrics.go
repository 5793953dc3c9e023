package wallet

import "escrow/internal/models"

// MetricsCollector receives ledger and cache observations.
type MetricsCollector interface {
	RecordBalanceChange(walletID uint, before, after models.Money)
	RecordError(operation, reason string)
	RecordCacheHit(operation string)
	RecordCacheMiss(operation string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordBalanceChange(uint, models.Money, models.Money) {}
func (n *NoopMetricsCollector) RecordError(string, string)                           {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                                {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                               {}
