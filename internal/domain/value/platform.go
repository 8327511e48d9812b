package value

import (
	"errors"
	"fmt"
	"strings"
)

// Platform is an advertising channel the optimizer can move budget between.
type Platform string

const (
	PlatformMeta      Platform = "meta"
	PlatformGoogle    Platform = "google"
	PlatformTikTok    Platform = "tiktok"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformAmazon    Platform = "amazon"
	PlatformMicrosoft Platform = "microsoft"
)

var ErrUnknownPlatform = errors.New("unknown platform")

func AllPlatforms() []Platform {
	return []Platform{
		PlatformMeta,
		PlatformGoogle,
		PlatformTikTok,
		PlatformLinkedIn,
		PlatformAmazon,
		PlatformMicrosoft,
	}
}

func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))

	for _, known := range AllPlatforms() {
		if p == known {
			return p, nil
		}
	}

	return "", fmt.Errorf("%q: %w", s, ErrUnknownPlatform)
}

func (p Platform) String() string {
	return string(p)
}
