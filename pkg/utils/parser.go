package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"fotoforge/pkg/logger"
)

// sizePattern is a decimal amount followed by an optional unit, e.g. "10MB",
// "1.5 GiB" or "512".
var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGT]?)(I?B)?$`)

var sizeShift = map[string]uint{"": 0, "K": 10, "M": 20, "G": 30, "T": 40}

// SizeToBytes parses an upload or storage limit from the config file. Units
// are binary (1KB = 1024 bytes) and case-insensitive; "KiB" and "KB" mean
// the same. Anything unparseable, zero or negative yields def.
func SizeToBytes(s string, def int64) int64 {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return def
	}

	m := sizePattern.FindStringSubmatch(raw)
	if m == nil {
		logger.LogWarn("Invalid size '%s', using %s", s, FormatBytes(def))
		return def
	}

	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil || amount <= 0 {
		logger.LogWarn("Invalid size '%s', using %s", s, FormatBytes(def))
		return def
	}

	bytes := amount * float64(uint64(1)<<sizeShift[m[2]])
	if bytes >= math.MaxInt64 {
		return def
	}
	return int64(bytes)
}
