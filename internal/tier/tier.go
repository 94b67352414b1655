package tier

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Tier identifies a provider storage class the converter can act on
type Tier int

const (
	Glacier Tier = iota
	GlacierIR
	DeepArchive

	// Count is the number of known tiers, used to size per-tier tables
	Count
)

// Adaptive is the storage class objects are converted into
const Adaptive = "INTELLIGENT_TIERING"

// PolicySeparator separates tier tokens in a storage class list
const PolicySeparator = "#"

var names = [Count]string{
	Glacier:     "GLACIER",
	GlacierIR:   "GLACIER_IR",
	DeepArchive: "DEEP_ARCHIVE",
}

// All returns every known tier in declaration order
func All() []Tier {
	tiers := make([]Tier, 0, Count)
	for t := Tier(0); t < Count; t++ {
		tiers = append(tiers, t)
	}
	return tiers
}

// String returns the provider storage class name
func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return names[t]
}

// Valid reports whether t is a known enumerant
func (t Tier) Valid() bool {
	return t >= 0 && t < Count
}

// Staged reports whether objects in t must be restored before they can be copied
func (t Tier) Staged() bool {
	return t == Glacier || t == DeepArchive
}

// Parse maps a provider storage class name to a Tier. Names are case
// sensitive, as they are in listing results.
func Parse(name string) (Tier, bool) {
	name = strings.TrimSpace(name)
	for t, n := range names {
		if n == name {
			return Tier(t), true
		}
	}
	return 0, false
}

// Policy pairs a source tier with whether matching objects get converted
type Policy struct {
	Tier              Tier
	ConvertToAdaptive bool
}

// ParsePolicies builds policies from a separator-delimited list such as
// "GLACIER#GLACIER_IR". A token may carry "=false" to discover objects
// without converting them. Invalid and duplicate tokens are logged and dropped.
func ParsePolicies(list string, logger *zap.Logger) []Policy {
	var policies []Policy
	seen := make(map[Tier]bool)

	for _, token := range strings.Split(list, PolicySeparator) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		name, flag, hasFlag := strings.Cut(token, "=")
		t, ok := Parse(name)
		if !ok {
			logger.Warn("Skipping invalid storage class", zap.String("token", token))
			continue
		}

		convert := true
		if hasFlag {
			v, err := strconv.ParseBool(strings.TrimSpace(flag))
			if err != nil {
				logger.Warn("Skipping storage class with invalid convert flag",
					zap.String("token", token),
					zap.Error(err),
				)
				continue
			}
			convert = v
		}

		if seen[t] {
			logger.Warn("Skipping duplicate storage class", zap.String("token", token))
			continue
		}
		seen[t] = true

		policies = append(policies, Policy{Tier: t, ConvertToAdaptive: convert})
		logger.Info("Added storage class policy",
			zap.Stringer("tier", t),
			zap.Bool("convert", convert),
		)
	}

	return policies
}
