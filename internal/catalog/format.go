package catalog

import "time"

// DefaultDateLayout renders dates like "Jan 25, 2018"
const DefaultDateLayout = "Jan 02, 2006"

// FormatDate renders t for humans with an explicit layout. Month and day
// names come from Go's fixed English tables; no process locale is consulted.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// CreatedHuman renders the album's creation date with DefaultDateLayout
func (a Album) CreatedHuman() string {
	return FormatDate(a.Created, DefaultDateLayout)
}
