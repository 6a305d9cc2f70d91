package handlers

import "time"

// parseDateFlexible accepts the date formats the board frontend sends.
func parseDateFlexible(dateStr string) (time.Time, bool) {
	if dateStr == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02",   // ISO date, as sent by <input type="date">
		time.RFC3339,   // full RFC3339
		"2 Jan 2006",   // e.g., 1 Feb 2024
		"Jan 02, 2006", // display format of the cards
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
