package utils

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var digitsOnly = regexp.MustCompile(`[^0-9]`)

// ParseOptionalUUID parses s, returning nil for an empty string.
func ParseOptionalUUID(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// GenerateSKU builds P{NNN}{MMMMMM}: a three digit business prefix derived
// from the business id and the next per-business product number.
func GenerateSKU(businessID uuid.UUID, existing int64) string {
	h := fnv.New32a()
	_, _ = h.Write(businessID[:])
	return fmt.Sprintf("P%03d%06d", h.Sum32()%1000, existing+1)
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return digitsOnly.ReplaceAllString(phone, "")
}
