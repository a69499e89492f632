package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/storefront/backend/internal/domain/shared"
)

// Placeholder markers shipped in sample configuration
var placeholderMarkers = []string{
	"YOUR_SPREADSHEET_URL_HERE",
	"YOUR_APPS_SCRIPT_URL_HERE",
}

var endpointValidator = validator.New()

// IsPlaceholder reports whether an endpoint is missing or still the sample value
func IsPlaceholder(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return true
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(endpoint, marker) {
			return true
		}
	}
	return false
}

// ValidateEndpoint returns the trimmed endpoint or a config error naming it
func ValidateEndpoint(name, endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if IsPlaceholder(endpoint) {
		return "", shared.NewConfigError(name + " is not configured")
	}
	if err := endpointValidator.Var(endpoint, "required,url"); err != nil {
		return "", shared.NewConfigError(name + " is not a valid URL")
	}
	return endpoint, nil
}

// CatalogEndpoint returns the validated catalog URL
func (s StorefrontConfig) CatalogEndpoint() (string, error) {
	return ValidateEndpoint("SPREADSHEET_URL", s.CatalogURL)
}

// SubmitEndpoint returns the validated order submission URL
func (s StorefrontConfig) SubmitEndpoint() (string, error) {
	return ValidateEndpoint("APPS_SCRIPT_URL", s.SubmitURL)
}
