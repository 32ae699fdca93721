package loadgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/leadgate/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete lead traffic test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting leadgate traffic test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate scenarios
	scenarios, err := generateScenarios(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("scenario generation failed: %w", err)
	}

	// Step 3: Submit scenarios concurrently
	if err := submitScenarios(ctx, config, scenarios, stats); err != nil {
		return fmt.Errorf("scenario submission failed: %w", err)
	}

	// Step 4: Wait for the queue to drain
	logger.Get().Info(ctx, "waiting for the worker queue to drain")
	if err := waitForDrain(ctx, config); err != nil {
		logger.Get().Warn(ctx, "queue did not drain in time", logger.Error(err))
	}

	// Step 5: Fetch service stats and verify consistency
	serviceStats, err := fetchServiceStats(ctx, config)
	if err != nil {
		return fmt.Errorf("stats retrieval failed: %w", err)
	}
	if err := verifyResults(ctx, serviceStats, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save scenarios to file
	if err := saveScenariosToFile(ctx, config, scenarios); err != nil {
		logger.Get().Warn(ctx, "failed to save scenarios to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveScenariosToFile saves the generated scenarios to a JSON file.
func saveScenariosToFile(ctx context.Context, config *Config, scenarios []Scenario) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_leads_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, sc := range scenarios {
		jsonData, err := marshalScenario(sc)
		if err != nil {
			return fmt.Errorf("failed to marshal scenario %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write scenario %d: %w", i, err)
		}

		// Add comma except for last scenario
		if i < len(scenarios)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "scenarios saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var failureRate, scenariosPerSecond float64

	if stats.ScenariosSubmitted > 0 {
		failureRate = float64(stats.Failed) / float64(stats.ScenariosSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		scenariosPerSecond = float64(stats.ScenariosSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("scenariosGenerated", stats.ScenariosGenerated),
		logger.Int("scenariosSubmitted", stats.ScenariosSubmitted),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("eventsRejected", stats.EventsRejected),
		logger.Int("eventsDuplicate", stats.EventsDuplicate),
		logger.Int("formsAccepted", stats.FormsAccepted),
		logger.Int("clicksIssued", stats.ClicksIssued),
		logger.Int("clicksConfirmed", stats.ClicksConfirmed),
		logger.Int("clicksAbandoned", stats.ClicksAbandoned),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("failureRate", failureRate),
		logger.Float64("scenariosPerSecond", scenariosPerSecond))
}
