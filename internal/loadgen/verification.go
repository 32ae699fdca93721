package loadgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// ServiceStats is the slice of GET /stats the verifier cares about.
type ServiceStats struct {
	QueueLength   int   `json:"queueLength"`
	PendingClicks int   `json:"pendingClicks"`
	DedupeEntries int64 `json:"dedupeEntries"`
	WorkerCount   int   `json:"workerCount"`
}

// fetchServiceStats retrieves the service-side counters.
func fetchServiceStats(ctx context.Context, config *Config) (*ServiceStats, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("stats request failed with status: %d", resp.StatusCode)
	}

	var stats ServiceStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats: %w", err)
	}
	return &stats, nil
}

// waitForDrain polls /stats until the worker queue is empty.
func waitForDrain(ctx context.Context, config *Config) error {
	deadline := time.Now().Add(DrainTimeout)

	for {
		stats, err := fetchServiceStats(ctx, config)
		if err != nil {
			return err
		}
		if stats.QueueLength == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("queue still holds %d events after %s", stats.QueueLength, DrainTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(DrainPollInterval):
		}
	}
}

// verifyResults checks service-side counters against what the tool played.
//
// The service may carry state from earlier runs, so mismatches are warnings
// rather than hard failures, matching how the tool is used against shared
// environments.
func verifyResults(ctx context.Context, serviceStats *ServiceStats, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if stats.ScenariosSubmitted == 0 {
		return fmt.Errorf("no scenarios were submitted")
	}

	if serviceStats.QueueLength != 0 {
		log.Printf("⚠️  Queue not drained: %d events still pending", serviceStats.QueueLength)
	} else {
		log.Println("✅ Worker queue drained")
	}

	// Every accepted or rejected event leaves a dedupe entry behind.
	expectedDedupe := int64(stats.EventsAccepted + stats.EventsRejected + stats.FormsAccepted)
	if serviceStats.DedupeEntries < expectedDedupe {
		log.Printf("⚠️  Dedupe entries (%d) lower than expected (%d); the service may have evicted or rolled back entries",
			serviceStats.DedupeEntries, expectedDedupe)
	} else {
		log.Printf("✅ Dedupe registry holds %d entries (expected at least %d)",
			serviceStats.DedupeEntries, expectedDedupe)
	}

	// Abandoned clicks are the only ones that should stay pending.
	if serviceStats.PendingClicks < stats.ClicksAbandoned {
		log.Printf("⚠️  Pending clicks (%d) lower than abandoned clicks (%d); the registry may have evicted entries",
			serviceStats.PendingClicks, stats.ClicksAbandoned)
	} else {
		log.Printf("✅ Pending click registry holds %d entries (%d abandoned this run)",
			serviceStats.PendingClicks, stats.ClicksAbandoned)
	}

	if stats.Failed > 0 {
		log.Printf("⚠️  %d scenarios failed; check the service logs", stats.Failed)
	}

	log.Println("✅ Result verification completed")
	return nil
}
