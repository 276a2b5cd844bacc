package discovery

import (
	"strings"

	"github.com/martinsuchenak/labeld/internal/model"
)

// brandIndicators are matched against the lower-cased service name and host
var brandIndicators = []string{"brother", "ql-", "bql"}

// KnownModels lists the QL series models recognised in service names
var KnownModels = []string{
	"ql-500", "ql-550", "ql-560", "ql-570", "ql-580n",
	"ql-600", "ql-650td", "ql-700", "ql-710w", "ql-720nw",
	"ql-800", "ql-810w", "ql-820nwb", "ql-1100", "ql-1110nwb",
}

// GenericModel is reported for a recognised printer whose model could not be resolved
const GenericModel = "Brother QL"

// IsTargetPrinter reports whether a resolved service looks like a QL label printer
func IsTargetPrinter(info *ServiceInfo) bool {
	if info == nil {
		return false
	}
	name := strings.ToLower(info.Name)
	server := strings.ToLower(info.Server)
	for _, indicator := range brandIndicators {
		if strings.Contains(name, indicator) || strings.Contains(server, indicator) {
			return true
		}
	}
	return false
}

// ExtractModel returns a best-effort model string for a resolved service
func ExtractModel(info *ServiceInfo) string {
	if info == nil {
		return model.UnknownModel
	}

	// Longest match first so "ql-1100" is not reported as a prefix of "ql-1110nwb"
	name := strings.ToLower(info.Name)
	best := ""
	for _, m := range KnownModels {
		if strings.Contains(name, m) && len(m) > len(best) {
			best = m
		}
	}
	if best != "" {
		return strings.ToUpper(best)
	}

	// "ty" is the DNS-SD printer TXT key for the make and model
	if value := lookupProperty(info.Properties, "ty"); value != "" {
		return modelToken(value)
	}
	for key, value := range info.Properties {
		if strings.Contains(strings.ToLower(key), "model") && value != "" {
			return modelToken(value)
		}
	}

	return GenericModel
}

func lookupProperty(props map[string]string, key string) string {
	for k, v := range props {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// modelToken reduces a make-and-model value such as "Brother QL-820NWB" to
// its QL word, upper-cased. Values without one are returned trimmed.
func modelToken(value string) string {
	for _, field := range strings.Fields(value) {
		if strings.HasPrefix(strings.ToLower(field), "ql-") {
			return strings.ToUpper(field)
		}
	}
	return strings.TrimSpace(value)
}

// IsSupportedModel reports whether a model string is a QL series model name.
// The renderer takes the bare "QL-..." form, so a make prefix is not accepted.
func IsSupportedModel(m string) bool {
	return strings.HasPrefix(strings.ToLower(m), "ql-")
}

// Identity derives the stable printer key for a resolved service
func Identity(info *ServiceInfo, serviceName string) string {
	if info != nil && info.Server != "" {
		host := strings.TrimSuffix(info.Server, ".")
		host = strings.TrimSuffix(host, ".local")
		if host != "" {
			return host
		}
	}
	return serviceName
}

// MatchesRemoval is the loose name rule used when a service disappears: one
// string must contain the other. Service names and host identities are not
// formatted consistently, so an exact match would miss most removals; the cost
// is possible false positives. Matching is case-sensitive.
func MatchesRemoval(identity, serviceName string) bool {
	if identity == "" || serviceName == "" {
		return false
	}
	return strings.Contains(serviceName, identity) || strings.Contains(identity, serviceName)
}
