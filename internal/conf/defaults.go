// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "QuakePredict-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/quakepredict.log")

	viper.SetDefault("model.path", "model/quake_xgboost.json")

	viper.SetDefault("weather.provider", "openmeteo")
	viper.SetDefault("weather.baseurl", "https://api.open-meteo.com")
	viper.SetDefault("weather.pastdays", 30)
	viper.SetDefault("weather.forecastdays", 1)
	viper.SetDefault("weather.requesttimeout", 30)
	viper.SetDefault("weather.cachettl", 60)
	viper.SetDefault("weather.debug", false)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.corsorigins", []string{
		"http://localhost:8080",
		"http://127.0.0.1:5500",
	})
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "logs/webserver.log")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("security.jwtsecret", "")
	viper.SetDefault("security.tokenexpiry", 60)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.schedule", "15 0 * * *")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "quakepredict.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "quakepredict")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "quakepredict")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
