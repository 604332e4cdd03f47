package availability

import (
	"regexp"
	"strings"
)

type Provider string

const (
	ProviderAirbnb     Provider = "Airbnb"
	ProviderBookingCom Provider = "Booking.com"
	ProviderExpedia    Provider = "Expedia"
	ProviderOther      Provider = "Other"
	// ProviderOTA is the fallback label when nothing can be extracted.
	ProviderOTA Provider = "OTA"
)

var syncedFrom = regexp.MustCompile(`(?i)synced\s+from\s+([^\]\)\n]+)`)

// ExtractProvider derives a provider label from the free-text reason of an
// external closure. "Synced from <name>" is preferred; a known provider name
// anywhere in the text is accepted next; otherwise the result is ProviderOTA.
// A "Synced from" clause naming an unknown provider yields ProviderOther.
func ExtractProvider(reason string) Provider {
	if m := syncedFrom.FindStringSubmatch(reason); m != nil {
		name := strings.TrimSpace(m[1])
		if p, ok := knownProvider(name); ok {
			return p
		}
		if name != "" {
			return ProviderOther
		}
	}
	if p, ok := knownProvider(reason); ok {
		return p
	}
	return ProviderOTA
}

func knownProvider(text string) (Provider, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "airbnb"):
		return ProviderAirbnb, true
	case strings.Contains(t, "booking.com"), strings.Contains(t, "booking com"), strings.Contains(t, "bookingcom"):
		return ProviderBookingCom, true
	case strings.Contains(t, "expedia"), strings.Contains(t, "vrbo"):
		return ProviderExpedia, true
	default:
		return "", false
	}
}
