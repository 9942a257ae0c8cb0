package models

import "github.com/google/uuid"

// Diff compares the stored state with a freshly normalized listing and returns
// one change per tracked field whose value differs. Absent and present are
// never equal; two absent values are. The returned order follows
// TrackedFields, so output is reproducible.
//
// The current value is rendered to text, with an absent new value becoming the
// empty string; the previous value keeps its null-ness.
func (p *TrackedProperty) Diff(l *NormalizedListing) []PropertyChange {
	var changes []PropertyChange
	for _, f := range TrackedFields {
		prev, prevPresent := f.FromTracked(p)
		curr, currPresent := f.FromListing(l)
		if prevPresent == currPresent && prev == curr {
			continue
		}

		var previous *string
		if prevPresent {
			v := prev
			previous = &v
		}
		current := ""
		if currPresent {
			current = curr
		}
		changes = append(changes, PropertyChange{
			PropertyID:    p.ID,
			FieldName:     f.Name,
			PreviousValue: previous,
			CurrentValue:  current,
		})
	}
	return changes
}

// InitialChanges seeds history for a first sighting: one entry per present
// tracked field, previous value null. Absent fields produce nothing.
func InitialChanges(propertyID uuid.UUID, l *NormalizedListing) []PropertyChange {
	var changes []PropertyChange
	for _, f := range TrackedFields {
		value, present := f.FromListing(l)
		if !present {
			continue
		}
		changes = append(changes, PropertyChange{
			PropertyID:   propertyID,
			FieldName:    f.Name,
			CurrentValue: value,
		})
	}
	return changes
}
