// Package push contains the domain model for the dispatch relay: provider
// classification, notification content and per-token outcomes.
package push

import "strings"

// Provider identifies the push gateway a device token belongs to.
type Provider string

const (
	ProviderExpo    Provider = "expo"
	ProviderFCM     Provider = "fcm"
	ProviderUnknown Provider = "unknown"
)

// Expo issues tokens wrapped in a recognizable bracketed prefix. Both the
// current and the legacy spelling are in circulation.
var expoTokenPrefixes = []string{
	"ExponentPushToken[",
	"ExpoPushToken[",
}

// FCM registration tokens are long opaque strings with no fixed prefix.
// Anything at or below this length that isn't an Expo token is junk.
const minFCMTokenLength = 50

// Classify inspects a raw device token and returns the provider it belongs
// to. Pure and total: any input, including the empty string, yields a tag.
//
// The Expo prefix check must run first; the FCM check is a length-only
// heuristic that would otherwise swallow short-format tokens.
func Classify(token string) Provider {
	for _, prefix := range expoTokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			return ProviderExpo
		}
	}
	if len(token) > minFCMTokenLength {
		return ProviderFCM
	}
	return ProviderUnknown
}

// MaskToken truncates a token for logging. Raw tokens are credentials and
// must not appear in full in log output.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:8] + "..." + token[len(token)-4:]
}
