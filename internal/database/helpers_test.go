package database_test

import "wildcafe-pos/internal/config"

func configWithDriver(driver string) config.DatabaseConfig {
	return config.DatabaseConfig{Driver: driver, ConnectTries: 1}
}
