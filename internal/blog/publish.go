package blog

import "time"

// PublicationTimestamp derives published_at from the publication flag.
// Publishing keeps an explicit timestamp or stamps now; unpublishing always
// clears it.
func PublicationTimestamp(isPublished bool, explicit *time.Time, now time.Time) *time.Time {
	if !isPublished {
		return nil
	}
	if explicit != nil {
		t := *explicit
		return &t
	}
	return &now
}
