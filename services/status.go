package services

import "time"

// Canonical status values, ordered by lifecycle precedence.
const (
	StatusSold       = "Sold"
	StatusPending    = "Pending"
	StatusContingent = "Contingent"
	StatusComingSoon = "Coming Soon"
	StatusActive     = "Active"
	StatusOther      = "Other"
)

// activeRawStatuses are the source statuses that collapse to Active when no
// higher-priority flag is set.
var activeRawStatuses = map[string]bool{
	"for_sale":       true,
	"ready_to_build": true,
	"for_rent":       true,
}

// DeriveStatus collapses the raw scraped status and the lifecycle flags into
// one canonical label. A property can carry several flags at once (pending and
// contingent, say); the check order decides which one wins.
func DeriveStatus(soldDate *time.Time, isPending, isContingent, isComingSoon bool, rawStatus *string) string {
	if soldDate != nil {
		return StatusSold
	}
	if isPending {
		return StatusPending
	}
	if isContingent {
		return StatusContingent
	}
	if isComingSoon {
		return StatusComingSoon
	}
	if rawStatus != nil && activeRawStatuses[*rawStatus] {
		return StatusActive
	}
	return StatusOther
}
