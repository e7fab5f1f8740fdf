// Package tac interprets Taqman Array Card (TAC) results: per-well cycle
// thresholds, the detection rule, and card-level control checks.
package tac

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// DefaultCtCutoff is the cycle threshold above which amplification is
// treated as noise rather than detection.
const DefaultCtCutoff = 35.0

// Control targets present on every card.
const (
	// AmplificationControl is the spiked internal control; it must amplify
	// on every valid card.
	AmplificationControl = "PhHV"

	// NegativeControl is the no-template control; any amplification there
	// means the card is contaminated.
	NegativeControl = "NTC"
)

// Panel lists the pathogen targets assayed in the workshop, in reporting
// order.
var Panel = []string{
	"Campylobacter_jejuni",
	"Cryptosporidium",
	"ETEC_LT",
	"ETEC_ST",
	"Giardia",
	"Norovirus_GII",
	"Shigella_EIEC",
}

// Well is one reaction well on a card.
type Well struct {
	SampleID string     `csv:"sample_id"`
	CardID   string     `csv:"card_id"`
	Target   string     `csv:"target"`
	Ct       null.Float `csv:"ct"`
}

// ParseCt converts the instrument's Ct column to a nullable value. The
// instrument reports "Undetermined" (and sometimes leaves the field blank)
// when no amplification crossed the threshold within the run; both are a
// null Ct, which is a non-detect rather than missing data.
func ParseCt(raw string) (null.Float, error) {
	cleaned := strings.TrimSpace(raw)

	if cleaned == "" || strings.EqualFold(cleaned, "undetermined") || strings.EqualFold(cleaned, "NA") {
		return null.Float{}, nil
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return null.Float{}, fmt.Errorf("tac: unparseable Ct value %q: %w", raw, err)
	}

	if value <= 0 {
		return null.Float{}, fmt.Errorf("tac: Ct value %q is not positive", raw)
	}

	return null.FloatFrom(value), nil
}

// Detected reports whether the well amplified strictly below the cutoff. A
// null Ct never counts as detected.
func (w Well) Detected(cutoff float64) bool {
	return w.Ct.Valid && w.Ct.Float64 < cutoff
}

// ValidateCard checks a card's control wells. A card whose no-template
// control amplified, or whose amplification control did not, invalidates
// every sample well it carries.
func ValidateCard(wells []Well, cutoff float64) error {
	var sawNTC, sawAmplification bool

	for _, w := range wells {
		switch w.Target {
		case NegativeControl:
			sawNTC = true
			if w.Detected(cutoff) {
				return fmt.Errorf("tac: card %s: no-template control amplified at Ct %.2f", w.CardID, w.Ct.Float64)
			}
		case AmplificationControl:
			sawAmplification = true
			if !w.Detected(cutoff) {
				return fmt.Errorf("tac: card %s: amplification control failed", w.CardID)
			}
		}
	}

	if !sawNTC || !sawAmplification {
		return fmt.Errorf("tac: card is missing control wells")
	}

	return nil
}
