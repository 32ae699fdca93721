// Package validate defines the contract for separating genuine conversions
// from false-positive ad-platform conversions.
package validate

import (
	"context"

	"github.com/okian/leadgate/internal/domain/model"
)

// Rejection reasons surfaced in verdicts and stats.
const (
	ReasonOutboundConfirmed = "outbound_confirmed"
	ReasonNoFollowThrough   = "no_follow_through"
)

// Verdict is the classification result for a single lead event.
type Verdict struct {
	Genuine bool
	Reason  string
}

// Classifier decides whether a lead event is a genuine conversion.
// Implementations must treat missing or malformed UTM fields as irrelevant:
// attribution quality never affects validity.
type Classifier interface {
	Classify(ctx context.Context, e model.LeadEvent) Verdict
}

// OutboundClassifier classifies on the outbound-confirmation signal alone.
// A bare button click is a false positive; an event carrying a confirmation
// (bot contact or submitted form) is genuine. Dwell time is recorded as
// metadata but deliberately does not influence the verdict.
type OutboundClassifier struct{}

// New creates the default classifier.
func New() *OutboundClassifier {
	return &OutboundClassifier{}
}

// Classify implements Classifier.
func (c *OutboundClassifier) Classify(_ context.Context, e model.LeadEvent) Verdict {
	if e.Action == model.ActionOutboundConfirmed {
		return Verdict{Genuine: true, Reason: ReasonOutboundConfirmed}
	}
	return Verdict{Genuine: false, Reason: ReasonNoFollowThrough}
}
