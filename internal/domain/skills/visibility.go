package skills

// Visibility classifies an embedding for search and listings. It is always
// derived from (isLatest, isApproved) and never set independently.
type Visibility string

const (
	VisibilityLatestApproved   Visibility = "latest-approved"
	VisibilityLatest           Visibility = "latest"
	VisibilityArchivedApproved Visibility = "archived-approved"
	VisibilityArchived         Visibility = "archived"
)

func VisibilityFor(isLatest, isApproved bool) Visibility {
	switch {
	case isLatest && isApproved:
		return VisibilityLatestApproved
	case isLatest:
		return VisibilityLatest
	case isApproved:
		return VisibilityArchivedApproved
	default:
		return VisibilityArchived
	}
}

// SearchableVisibilities lists the classes public search may return.
func SearchableVisibilities(approvedOnly bool) []Visibility {
	if approvedOnly {
		return []Visibility{VisibilityLatestApproved}
	}
	return []Visibility{VisibilityLatest, VisibilityLatestApproved}
}

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityLatestApproved, VisibilityLatest, VisibilityArchivedApproved, VisibilityArchived:
		return true
	default:
		return false
	}
}
