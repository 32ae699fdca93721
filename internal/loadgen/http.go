package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Submission outcome labels.
const (
	resultAccepted      = "accepted"
	resultRejected      = "rejected"
	resultDuplicate     = "duplicate"
	resultForm          = "form"
	resultConfirmed     = "confirmed"
	resultAbandoned     = "abandoned"
	resultConfirmFailed = "confirm_failed"
	resultFailed        = "failed"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalScenario marshals a scenario to JSON
func marshalScenario(sc Scenario) ([]byte, error) {
	return json.Marshal(sc)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitScenarios plays scenarios against the service concurrently using
// a worker pool.
func submitScenarios(ctx context.Context, config *Config, scenarios []Scenario, stats *Stats) error {
	log.Printf("📤 Submitting %d scenarios with %d workers...", len(scenarios), config.Workers)

	client := newHTTPClient(config.Timeout)

	// Counters for statistics
	var (
		submitted     int64
		accepted      int64
		rejected      int64
		duplicate     int64
		forms         int64
		confirmed     int64
		abandoned     int64
		confirmFailed int64
		failed        int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	scenarioChan := make(chan Scenario, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for sc := range scenarioChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleScenario(ctx, client, config.BaseURL, sc)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case resultAccepted:
						atomic.AddInt64(&accepted, 1)
					case resultRejected:
						atomic.AddInt64(&rejected, 1)
					case resultDuplicate:
						atomic.AddInt64(&duplicate, 1)
					case resultForm:
						atomic.AddInt64(&forms, 1)
					case resultConfirmed:
						atomic.AddInt64(&confirmed, 1)
					case resultAbandoned:
						atomic.AddInt64(&abandoned, 1)
					case resultConfirmFailed:
						atomic.AddInt64(&confirmFailed, 1)
					case resultFailed:
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (accepted: %d, rejected: %d, duplicate: %d, confirmed: %d, failed: %d)",
								total, len(scenarios),
								atomic.LoadInt64(&accepted), atomic.LoadInt64(&rejected),
								atomic.LoadInt64(&duplicate), atomic.LoadInt64(&confirmed),
								atomic.LoadInt64(&failed)+atomic.LoadInt64(&confirmFailed))
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d", total, len(scenarios))
						}
					}
				}
			}
		}()
	}

	// Send scenarios to workers
	go func() {
		defer close(scenarioChan)
		for _, sc := range scenarios {
			select {
			case <-ctx.Done():
				return
			case scenarioChan <- sc:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.ScenariosSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsAccepted = int(atomic.LoadInt64(&accepted))
	stats.EventsRejected = int(atomic.LoadInt64(&rejected))
	stats.EventsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.FormsAccepted = int(atomic.LoadInt64(&forms))
	stats.ClicksConfirmed = int(atomic.LoadInt64(&confirmed))
	stats.ClicksAbandoned = int(atomic.LoadInt64(&abandoned))
	stats.ClicksIssued = stats.ClicksConfirmed + stats.ClicksAbandoned + int(atomic.LoadInt64(&confirmFailed))
	stats.Failed = int(atomic.LoadInt64(&failed) + atomic.LoadInt64(&confirmFailed))

	log.Printf(`✅ Scenario submission completed:
   Accepted: %d
   Rejected (false positives): %d
   Duplicate: %d
   Forms: %d
   Clicks confirmed: %d
   Clicks abandoned: %d
   Failed: %d
`, stats.EventsAccepted, stats.EventsRejected, stats.EventsDuplicate,
		stats.FormsAccepted, stats.ClicksConfirmed, stats.ClicksAbandoned, stats.Failed)

	return nil
}

// submitSingleScenario plays one scenario and returns the outcome label.
func submitSingleScenario(ctx context.Context, client *HTTPClient, baseURL string, sc Scenario) string {
	switch sc.Kind {
	case KindGenuine, KindFalsePositive, KindDuplicate:
		return submitEvent(ctx, client, baseURL+"/events", sc.Request)
	case KindForm:
		return submitForm(ctx, client, baseURL+"/events/form_submit", sc.Request)
	case KindClickConfirmed:
		return submitClick(ctx, client, baseURL, sc, true)
	case KindClickAbandoned:
		return submitClick(ctx, client, baseURL, sc, false)
	default:
		return resultFailed
	}
}

// submitEvent posts a lead event and classifies the acknowledgement.
func submitEvent(ctx context.Context, client *HTTPClient, url string, p Payload) string {
	resp, err := client.Post(ctx, url, p)
	if err != nil {
		return resultFailed
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return resultFailed
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && !ack.Logged {
			return resultRejected
		}
		return resultAccepted
	case StatusOK:
		return resultDuplicate
	default:
		return resultFailed
	}
}

// submitForm posts a lead form submission.
func submitForm(ctx context.Context, client *HTTPClient, url string, p Payload) string {
	resp, err := client.Post(ctx, url, p)
	if err != nil {
		return resultFailed
	}
	if _, err := readResponseBody(resp); err != nil {
		return resultFailed
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return resultForm
	case StatusOK:
		return resultDuplicate
	default:
		return resultFailed
	}
}

// submitClick issues a messenger click and, when confirm is set, plays the
// matching bot confirmation back with the issued click id.
func submitClick(ctx context.Context, client *HTTPClient, baseURL string, sc Scenario, confirm bool) string {
	resp, err := client.Post(ctx, baseURL+"/events/"+sc.Messenger+"_click", sc.Request)
	if err != nil {
		return resultFailed
	}

	body, err := readResponseBody(resp)
	if err != nil || resp.StatusCode != StatusOK {
		return resultFailed
	}

	var click ClickResponse
	if err := json.Unmarshal(body, &click); err != nil || click.ClickID == "" {
		return resultFailed
	}

	if !confirm {
		return resultAbandoned
	}

	msg := confirmMessage(sc.Messenger, click.ClickID)
	confirmResp, err := client.Post(ctx, baseURL+"/bot/"+sc.Messenger, map[string]string{"msg": msg})
	if err != nil {
		return resultConfirmFailed
	}
	if _, err := readResponseBody(confirmResp); err != nil {
		return resultConfirmFailed
	}
	if confirmResp.StatusCode != StatusOK {
		return resultConfirmFailed
	}
	return resultConfirmed
}

// confirmMessage builds the bot message carrying the click id the way a
// real user would deliver it.
func confirmMessage(messenger, clickID string) string {
	if messenger == "telegram" {
		return "/start " + clickID
	}
	return "Здравствуйте! Мой код: " + clickID
}
