package domain

// Presentation categories, most specific first.
const (
	CategoryCandle  = "candle"
	CategoryPrinter = "printer"
	CategoryLaptop  = "laptop"
	CategoryAudio   = "audio"
	CategoryServer  = "server"
)

var categoryTable = []struct {
	category string
	tags     []string
}{
	{CategoryCandle, []string{"Candle"}},
	{CategoryPrinter, []string{"Printer"}},
	{CategoryLaptop, []string{"MacBook", "Laptop"}},
	{CategoryAudio, []string{"Music", "AudioAccessory"}},
	{CategoryServer, []string{TagServer, "Synology"}},
}

// Tags of vendors known for collecting data from the local network.
var privacyConcernTags = []string{"Google", "Amazon", "Facebook"}

// PrimaryCategory returns the presentation category for a tag set, or ""
// when no category applies.
func PrimaryCategory(tags []string) string {
	for _, row := range categoryTable {
		for _, tag := range row.tags {
			if containsString(tags, tag) {
				return row.category
			}
		}
	}
	return ""
}

// HasPrivacyConcern reports whether any tag names a data-collecting vendor.
func HasPrivacyConcern(tags []string) bool {
	for _, tag := range privacyConcernTags {
		if containsString(tags, tag) {
			return true
		}
	}
	return false
}
