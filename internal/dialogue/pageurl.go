package dialogue

import (
	"net/url"
	"strconv"
	"strings"
)

// PageURL appends the record fields to base as query parameters. Unset
// fields are omitted.
func PageURL(base string, rec Record) string {
	q := url.Values{}
	set := func(key string, v *string) {
		if v != nil {
			q.Set(key, *v)
		}
	}
	set("district", rec.District)
	set("state", rec.State)
	if rec.FarmSizeAcres != nil {
		q.Set("farm_size_acres", strconv.FormatFloat(*rec.FarmSizeAcres, 'f', -1, 64))
	}
	set("crop_type", rec.CropType)
	set("sowing_date", rec.SowingDate)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}
