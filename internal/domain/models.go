package domain

// Record is one parsed CSV row keyed by column header.
type Record map[string]string
