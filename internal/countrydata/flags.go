package countrydata

var countryFlags = map[string]string{
	"US": "🇺🇸", "CN": "🇨🇳", "IN": "🇮🇳", "DE": "🇩🇪", "JP": "🇯🇵",
	"GB": "🇬🇧", "FR": "🇫🇷", "BR": "🇧🇷", "IT": "🇮🇹", "CA": "🇨🇦",
	"RU": "🇷🇺", "KR": "🇰🇷", "AU": "🇦🇺", "ES": "🇪🇸", "MX": "🇲🇽",
	"ID": "🇮🇩", "TR": "🇹🇷", "NL": "🇳🇱", "SA": "🇸🇦", "CH": "🇨🇭",
	"SE": "🇸🇪", "PL": "🇵🇱", "BE": "🇧🇪", "AR": "🇦🇷", "NO": "🇳🇴",
}

// DefaultFlag is shown for countries without a known flag
const DefaultFlag = "🌍"

// Flag returns the emoji flag for a country code
func Flag(code string) string {
	if flag, ok := countryFlags[normalizeCode(code)]; ok {
		return flag
	}
	return DefaultFlag
}
