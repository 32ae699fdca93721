package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/leadgate/pkg/logger"
)

// Constants for random number generation.
const (
	scenarioKindDivisor = 10
	dwellTimeMaxMS      = 600000
	phoneSuffixDivisor  = 1000000000
)

// Constants for scenario distribution cases. Genuine traffic dominates,
// false positives and abandoned clicks are the noise the pipeline filters.
const (
	caseGenuineA        = 0
	caseGenuineB        = 1
	caseGenuineC        = 2
	caseFalsePositiveA  = 3
	caseFalsePositiveB  = 4
	caseForm            = 5
	caseTelegramClick   = 6
	caseWhatsAppClick   = 7
	caseAbandonedClick  = 8
	caseGenuineFallback = 9
)

// Duplicate seeding: every Nth scenario replays its predecessor.
const duplicateEvery = 12

// Value pools for marketing metadata.
var (
	utmSources   = []string{"yandex", "google", "vk", "telegram", "direct", ""}
	utmMediums   = []string{"cpc", "banner", "social", "organic", ""}
	utmCampaigns = []string{"spring_promo", "retargeting", "brand", "generic"}
	pageCities   = []string{"moscow", "spb", "kazan", "novosibirsk", "ekaterinburg"}
	landingPages = []string{"lp-main", "lp-promo", "lp-city"}
	referrers    = []string{"https://yandex.ru/search/", "https://www.google.com/", "https://vk.com/", ""}
	formNames    = []string{"Anna", "Ivan", "Olga", "Dmitry", "Ekaterina", "Sergey"}
)

// randInt returns a random int in [0, n) using crypto/rand.
func randInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// pick returns a random element of the pool.
func pick(pool []string) string {
	return pool[randInt(len(pool))]
}

// generateScenarios creates the specified number of lead scenarios with
// unique session and event ids, then seeds duplicate replays.
func generateScenarios(ctx context.Context, config *Config, stats *Stats) ([]Scenario, error) {
	logger.Get().Info(ctx, "generating lead scenarios", logger.Int("numEvents", config.NumEvents))

	scenarios := make([]Scenario, config.NumEvents)

	// Pre-allocate session IDs to ensure uniqueness
	sessionIDs := make([]string, config.NumEvents)
	for i := 0; i < config.NumEvents; i++ {
		sessionIDs[i] = uuid.New().String()
	}

	// Generate scenarios concurrently
	type scenarioResult struct {
		index    int
		scenario Scenario
		err      error
	}

	resultChan := make(chan scenarioResult, config.NumEvents)

	// Use worker pool for scenario generation
	workerCount := minInt(config.Workers, config.NumEvents)
	perWorker := config.NumEvents / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * perWorker
		end := start + perWorker
		if worker == workerCount-1 {
			end = config.NumEvents // Last worker gets remaining scenarios
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- scenarioResult{index: i, err: ctx.Err()}
					return
				default:
					resultChan <- scenarioResult{index: i, scenario: generateSingleScenario(i, sessionIDs[i])}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during scenario generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate scenario %d: %w", result.index, result.err)
			}
			scenarios[result.index] = result.scenario
		}
	}

	seedDuplicates(scenarios)

	stats.ScenariosGenerated = len(scenarios)
	logger.Get().Info(ctx, "generated scenarios successfully", logger.Int("count", len(scenarios)))

	return scenarios, nil
}

// seedDuplicates turns every Nth scenario into a byte-for-byte replay of
// its predecessor when the predecessor goes through POST /events, so the
// dedupe path gets exercised under concurrency.
func seedDuplicates(scenarios []Scenario) {
	for i := duplicateEvery - 1; i < len(scenarios); i += duplicateEvery {
		prev := scenarios[i-1]
		if prev.Kind != KindGenuine && prev.Kind != KindFalsePositive {
			continue
		}
		scenarios[i] = Scenario{Kind: KindDuplicate, Request: prev.Request}
	}
}

// generateSingleScenario creates a single scenario with the given index and
// session ID.
func generateSingleScenario(index int, sessionID string) Scenario {
	p := Payload{
		EventID:       "event_" + strconv.FormatInt(int64(index), 10) + "_" + uuid.NewString(),
		SessionID:     sessionID,
		TS:            time.Now().UTC().Format(time.RFC3339),
		PageCity:      pick(pageCities),
		LandingPageID: pick(landingPages),
		UTMSource:     pick(utmSources),
		UTMMedium:     pick(utmMediums),
		UTMCampaign:   pick(utmCampaigns),
		TimeOnPageMS:  int64(randInt(dwellTimeMaxMS)),
		Referrer:      pick(referrers),
	}

	switch randInt(scenarioKindDivisor) {
	case caseGenuineA, caseGenuineB, caseGenuineC, caseGenuineFallback:
		p.ActionType = "outbound_confirmed"
		return Scenario{Kind: KindGenuine, Request: p}
	case caseFalsePositiveA, caseFalsePositiveB:
		p.ActionType = "button_click"
		return Scenario{Kind: KindFalsePositive, Request: p}
	case caseForm:
		p.Form = &FormInput{Name: pick(formNames), Phone: randomPhone()}
		return Scenario{Kind: KindForm, Request: p}
	case caseTelegramClick:
		return Scenario{Kind: KindClickConfirmed, Messenger: "telegram", Request: p}
	case caseWhatsAppClick:
		return Scenario{Kind: KindClickConfirmed, Messenger: "whatsapp", Request: p}
	case caseAbandonedClick:
		if randInt(2) == 0 {
			return Scenario{Kind: KindClickAbandoned, Messenger: "telegram", Request: p}
		}
		return Scenario{Kind: KindClickAbandoned, Messenger: "whatsapp", Request: p}
	default:
		p.ActionType = "outbound_confirmed"
		return Scenario{Kind: KindGenuine, Request: p}
	}
}

// randomPhone returns a plausible mobile number.
func randomPhone() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(phoneSuffixDivisor))
	return fmt.Sprintf("+79%09d", n.Int64())
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
