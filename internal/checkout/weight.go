package checkout

import (
	"encoding/json"
	"strconv"
	"strings"

	"go-techshop/internal/catalog"
	"go-techshop/internal/errs"
)

// specWeightKey is the designated technical-spec attribute holding the
// shipping weight.
const specWeightKey = "weight"

// parseWeight extracts the weight in grams from the variant's technical
// specs. Shipping-fee computation downstream depends on this value, so
// a missing or malformed spec is a hard validation error, never a
// silent default.
func parseWeight(v *catalog.Variant) (int64, error) {
	if v.TechnicalSpecs == "" {
		return 0, errs.Newf(errs.Validation, "variant %d has no technical specs", v.ID)
	}

	var specs catalog.TechnicalSpecs
	if err := json.Unmarshal([]byte(v.TechnicalSpecs), &specs); err != nil {
		return 0, errs.Wrap(errs.Validation, "malformed technical specs", err)
	}

	for _, entry := range specs.Specs {
		if !strings.EqualFold(strings.TrimSpace(entry.Key), specWeightKey) {
			continue
		}
		grams, err := parseWeightValue(entry.Value)
		if err != nil {
			return 0, errs.Newf(errs.Validation, "variant %d has invalid weight spec %q", v.ID, entry.Value)
		}
		return grams, nil
	}

	return 0, errs.Newf(errs.Validation, "variant %d has no weight spec", v.ID)
}

// parseWeightValue accepts "500 g", "1.2 kg" or a bare number of grams.
func parseWeightValue(raw string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "kg"):
		multiplier = 1000
		s = strings.TrimSpace(strings.TrimSuffix(s, "kg"))
	case strings.HasSuffix(s, "g"):
		s = strings.TrimSpace(strings.TrimSuffix(s, "g"))
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, strconv.ErrRange
	}
	return int64(value*multiplier + 0.5), nil
}
