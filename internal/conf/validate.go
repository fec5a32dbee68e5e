// validate.go: validation of the loaded settings
package conf

import (
	"errors"
	"fmt"
	"strconv"
)

// ValidateSettings checks the loaded settings for configuration mistakes that
// would only surface later at runtime.
func ValidateSettings(settings *Settings) error {
	var validationErrors []string

	if err := validateWeatherSettings(&settings.Weather); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	if err := validateOutputSettings(&settings.Output); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("settings validation failed: %v", validationErrors)
	}
	return nil
}

func validateWeatherSettings(settings *WeatherSettings) error {
	if settings.Provider != "openmeteo" {
		return fmt.Errorf("invalid weather provider: %s", settings.Provider)
	}
	if settings.PastDays < 1 {
		return fmt.Errorf("weather pastdays must be at least 1, got %d", settings.PastDays)
	}
	if settings.RequestTimeout <= 0 {
		return fmt.Errorf("weather requesttimeout must be positive, got %d", settings.RequestTimeout)
	}
	return nil
}

func validateWebServerSettings(settings *WebServerSettings) error {
	if !settings.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid webserver port: %s", settings.Port)
	}
	return nil
}

func validateOutputSettings(settings *OutputSettings) error {
	if !settings.SQLite.Enabled && !settings.MySQL.Enabled {
		return errors.New("at least one of output.sqlite or output.mysql must be enabled")
	}
	if settings.SQLite.Enabled && settings.SQLite.Path == "" {
		return errors.New("output.sqlite.path must be set when SQLite is enabled")
	}
	return nil
}
