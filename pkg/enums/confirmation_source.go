package enums

import "fmt"

// ConfirmationSource names the path that reported a payment outcome.
type ConfirmationSource string

const (
	ConfirmationSourceWebhook ConfirmationSource = "webhook"
	ConfirmationSourceClient  ConfirmationSource = "client"
	ConfirmationSourceAdmin   ConfirmationSource = "admin"
)

var validConfirmationSources = []ConfirmationSource{
	ConfirmationSourceWebhook,
	ConfirmationSourceClient,
	ConfirmationSourceAdmin,
}

// String implements fmt.Stringer.
func (s ConfirmationSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ConfirmationSource.
func (s ConfirmationSource) IsValid() bool {
	for _, candidate := range validConfirmationSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseConfirmationSource converts raw input into a ConfirmationSource.
func ParseConfirmationSource(value string) (ConfirmationSource, error) {
	for _, candidate := range validConfirmationSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid confirmation source %q", value)
}
