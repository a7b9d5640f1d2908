// Package appconf holds the application environment and the import run
// configuration loaded from YAML.
package appconf

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment names the operating environment of the application.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// EnvFromString maps an environment flag value to an Environment,
// defaulting to Development.
func EnvFromString(env string) Environment {
	switch env {
	case "test":
		return Test
	case "production":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// AppConfig is the import run configuration.
type AppConfig struct {
	// StagingDBPath is the SQLite database holding the staged CIF tables.
	StagingDBPath string `yaml:"staging_db" validate:"required"`
	// OutputDBPath is where the GTFS shaped dataset is written.
	OutputDBPath string `yaml:"output_db" validate:"required"`
	// ScheduleHorizonMonths bounds how far ahead of today schedules are read.
	ScheduleHorizonMonths int `yaml:"schedule_horizon_months" validate:"omitempty,gte=1,lte=12"`
	// TransferOperator selects the operator whose associations keep the
	// original associated schedule visible alongside the merge (sleeper
	// portions sold as separate connections). Empty disables the lookup.
	TransferOperator string `yaml:"transfer_operator"`
	// TransferAssociations lists additional association ids treated the
	// same way.
	TransferAssociations []int `yaml:"transfer_associations"`
	// AgencyName and AgencyURL fill the GTFS agency entries, which the CIF
	// feed has no data for.
	AgencyName string `yaml:"agency_name"`
	AgencyURL  string `yaml:"agency_url"`
}

// LoadAppConfig reads and validates the YAML configuration at path.
func LoadAppConfig(path string) (AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config %s: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if cfg.ScheduleHorizonMonths == 0 {
		cfg.ScheduleHorizonMonths = 3
	}
	if cfg.AgencyName == "" {
		cfg.AgencyName = "National Rail"
	}
	if cfg.AgencyURL == "" {
		cfg.AgencyURL = "https://www.nationalrail.co.uk"
	}

	return cfg, nil
}
