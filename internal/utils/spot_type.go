package utils

import (
	"fmt"
	"regexp"
	"strings"

	"smartpark/internal/entities"
)

var spotTypeAliases = map[string]entities.SpotType{
	"accessible": entities.SpotDisabled,
	"family":     entities.SpotPriority,
	"charging":   entities.SpotEV,
}

// ParseSpotType maps operator input onto the closed spot type set.
// Matching is case-insensitive and accepts a few legacy aliases.
func ParseSpotType(s string) (entities.SpotType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range entities.SpotTypes {
		if name == strings.ToLower(string(t)) {
			return t, nil
		}
	}
	if t, ok := spotTypeAliases[name]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown spot type %q", s)
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NormalizeColor validates a CSS hex color and lowercases it.
// The empty string is accepted and means "no override".
func NormalizeColor(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "", nil
	}
	if !hexColor.MatchString(c) {
		return "", fmt.Errorf("invalid color %q, expected #rgb or #rrggbb", c)
	}
	return strings.ToLower(c), nil
}
