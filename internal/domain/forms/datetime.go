package forms

import "time"

// DatetimeLocal is the editing format for session datetimes.
const DatetimeLocal = "2006-01-02T15:04"

// acceptedLayouts covers the timestamp shapes the service has been seen to
// emit: RFC 3339 with and without sub-seconds, SQL-style, and the editing
// format itself.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DatetimeLocal,
	"2006-01-02",
}

// ToDatetimeLocal converts a server timestamp into the editing format. Any
// unparseable input yields an empty editable field rather than an error.
func ToDatetimeLocal(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DatetimeLocal)
		}
	}
	return ""
}
