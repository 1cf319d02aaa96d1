package payload

import "strings"

// Known platform labels.
const (
	PlatformVapi   = "vapi"
	PlatformRetell = "retell"
	PlatformCustom = "custom"
)

type platformRule struct {
	needles  []string
	platform string
}

var platformRules = []platformRule{
	{needles: []string{"call", "vapi"}, platform: PlatformVapi},
	{needles: []string{"retell"}, platform: PlatformRetell},
}

// Classify guesses the integration that produced a payload from its field names.
func Classify(fields []FieldDescriptor) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(f.Name)
	}
	joined := strings.Join(names, ",")
	for _, rule := range platformRules {
		for _, needle := range rule.needles {
			if strings.Contains(joined, needle) {
				return rule.platform
			}
		}
	}
	return PlatformCustom
}
