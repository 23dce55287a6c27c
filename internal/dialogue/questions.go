package dialogue

import (
	"math"
	"time"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/agriform/internal/extractor"
	"github.com/MikeSquared-Agency/agriform/internal/locale"
)

// question is one step of the fixed sequence. accept extracts a value from
// the answer and, if it passes the local checks, stores it on the record.
type question struct {
	key      string
	semantic bool
	accept   func(rec *Record, answer string, now time.Time) bool
}

var questions = [...]question{
	AwaitingLocation: {
		key:      locale.KeyLocation,
		semantic: true,
		accept: func(rec *Record, answer string, _ time.Time) bool {
			loc := extractor.ExtractLocation(answer)
			if !loc.Resolved() {
				return false
			}
			rec.District = &loc.District
			rec.State = &loc.State
			return true
		},
	},
	AwaitingFarmSize: {
		key: locale.KeyFarmSize,
		accept: func(rec *Record, answer string, _ time.Time) bool {
			size := extractor.ExtractFarmSize(answer)
			if math.IsNaN(size) || size <= 0 {
				return false
			}
			rec.FarmSizeAcres = &size
			return true
		},
	},
	AwaitingCropType: {
		key:      locale.KeyCropType,
		semantic: true,
		accept: func(rec *Record, answer string, _ time.Time) bool {
			crop := extractor.ExtractCropType(answer)
			if crop == extractor.Unknown || utf8.RuneCountInString(crop) < 2 {
				return false
			}
			rec.CropType = &crop
			return true
		},
	},
	AwaitingSowingDate: {
		key:      locale.KeySowingDate,
		semantic: true,
		accept: func(rec *Record, answer string, now time.Time) bool {
			date := extractor.SowingDateAt(answer, now)
			if date == "" {
				return false
			}
			rec.SowingDate = &date
			return true
		},
	},
}
