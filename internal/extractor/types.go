// Package extractor turns short conversational answers into typed farm
// record fields. Every function here is total: any input string produces a
// value, falling back to a sentinel when nothing usable is found.
package extractor

// Unknown is the sentinel returned when no value could be found.
const Unknown = "Unknown"

// LocationResult is the outcome of ExtractLocation.
type LocationResult struct {
	District string `json:"district"`
	State    string `json:"state"`
}

// Resolved reports whether both parts of the location were found.
func (l LocationResult) Resolved() bool {
	return l.District != "" && l.District != Unknown &&
		l.State != "" && l.State != Unknown
}

// indianStates is scanned in order; the first substring hit wins.
var indianStates = []string{
	"andhra pradesh", "arunachal pradesh", "assam", "bihar", "chhattisgarh",
	"goa", "gujarat", "haryana", "himachal pradesh", "jharkhand", "karnataka",
	"kerala", "madhya pradesh", "maharashtra", "manipur", "meghalaya", "mizoram",
	"nagaland", "odisha", "punjab", "rajasthan", "sikkim", "tamil nadu",
	"telangana", "tripura", "uttar pradesh", "uttarakhand", "west bengal",
}

// commonCrops is scanned in order; the first substring hit wins.
var commonCrops = []string{
	"rice", "wheat", "maize", "corn", "barley", "millet", "sorghum",
	"cotton", "sugarcane", "tea", "coffee", "jute", "rubber",
	"potato", "tomato", "onion", "garlic", "cabbage", "cauliflower",
	"banana", "mango", "apple", "orange", "grapes", "papaya",
	"soybean", "groundnut", "mustard", "sunflower", "chickpea",
	"lentil", "peas", "beans", "pulses", "paddy",
}

type numberWord struct {
	word  string
	value float64
}

// numberWords keeps dictionary order: "seventeen" resolves to 7 because
// "seven" is checked first.
var numberWords = []numberWord{
	{"one", 1}, {"two", 2}, {"three", 3}, {"four", 4}, {"five", 5},
	{"six", 6}, {"seven", 7}, {"eight", 8}, {"nine", 9}, {"ten", 10},
	{"eleven", 11}, {"twelve", 12}, {"fifteen", 15}, {"twenty", 20},
	{"thirty", 30}, {"forty", 40}, {"fifty", 50}, {"hundred", 100},
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

type dayOffset struct {
	term string
	days int
}

var relativeTerms = []dayOffset{
	{"today", 0},
	{"yesterday", -1},
	{"last week", -7},
	{"last month", -30},
	{"two weeks ago", -14},
	{"three weeks ago", -21},
}

type season struct {
	term     string
	monthDay string
}

// seasons maps agricultural seasons to the nominal sowing day of the
// current year.
var seasons = []season{
	{"kharif", "06-15"},
	{"rabi", "10-15"},
	{"zaid", "03-15"},
	{"summer", "03-15"},
	{"monsoon", "06-15"},
	{"winter", "10-15"},
}
