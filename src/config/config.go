package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"market-confluence/src/calendar"
	"market-confluence/src/helpers"
	"market-confluence/src/models"
)

var validate = validator.New()

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig loads a YAML file over the tag defaults and validates the result.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, helpers.NewConfigurationError(fmt.Sprintf("failed to read config file '%s'", configPath), err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. Defaults are applied before
// unmarshalling so an explicit false or zero in the file is kept.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := defaults.Set(&modelConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to apply config defaults", err)
	}
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, helpers.NewConfigurationError("failed to parse config from YAML", err)
	}

	config := &Config{MConfig: &modelConfig}
	if err := config.Validate(); err != nil {
		return nil, helpers.NewConfigurationError("config validation failed", err)
	}
	return config, nil
}

// Default is the configuration used when no file is given.
func Default() *Config {
	var modelConfig models.MConfig
	if err := defaults.Set(&modelConfig); err != nil {
		panic(err)
	}
	return &Config{MConfig: &modelConfig}
}

// -----------------------------------------------------------------------------

// Validate runs the tag rules, then the cross-field checks tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c.MConfig); err != nil {
		return err
	}

	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}
	if c.GrpcPort != 0 && c.GrpcPort == c.Port && c.GrpcHost == c.Host {
		return fmt.Errorf("grpc and http cannot share %s:%d", c.Host, c.Port)
	}

	cal := c.Calendar
	if _, err := time.LoadLocation(cal.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", cal.Timezone, err)
	}
	if _, err := calendar.ParseDate(cal.Epoch); err != nil {
		return fmt.Errorf("invalid epoch: %w", err)
	}

	preOpen, err := parseClock(cal.PreOpen)
	if err != nil {
		return fmt.Errorf("invalid pre_open: %w", err)
	}
	open, err := parseClock(cal.RegularOpen)
	if err != nil {
		return fmt.Errorf("invalid regular_open: %w", err)
	}
	closeAt, err := parseClock(cal.RegularClose)
	if err != nil {
		return fmt.Errorf("invalid regular_close: %w", err)
	}
	if open >= closeAt {
		return fmt.Errorf("regular_open %s must be before regular_close %s", cal.RegularOpen, cal.RegularClose)
	}
	if preOpen > open {
		return fmt.Errorf("pre_open %s must not be after regular_open %s", cal.PreOpen, cal.RegularOpen)
	}
	if cal.LibraryYears.From != 0 && cal.LibraryYears.To != 0 && cal.LibraryYears.From > cal.LibraryYears.To {
		return fmt.Errorf("library_years from %d is after to %d", cal.LibraryYears.From, cal.LibraryYears.To)
	}

	for _, h := range cal.Holidays {
		if _, err := calendar.ParseDate(h.Date); err != nil {
			return fmt.Errorf("invalid holiday date: %w", err)
		}
	}
	for _, h := range cal.HalfDays {
		if _, err := calendar.ParseDate(h.Date); err != nil {
			return fmt.Errorf("invalid half-day date: %w", err)
		}
		early, err := halfDayClose(h)
		if err != nil {
			return fmt.Errorf("invalid half-day close for %s: %w", h.Date, err)
		}
		if early <= open || early >= closeAt {
			return fmt.Errorf("half-day %s close %s must fall inside the regular session", h.Date, h.Close)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// CalendarConfig assembles the immutable calendar tables: the built-in NYSE
// tables, then exchange library holidays, then the YAML entries, each layer
// overriding the previous one date by date.
func (c *Config) CalendarConfig() (calendar.Config, error) {
	cal := c.Calendar

	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		return calendar.Config{}, helpers.NewConfigurationError("unknown timezone", err)
	}
	epoch, err := calendar.ParseDate(cal.Epoch)
	if err != nil {
		return calendar.Config{}, helpers.NewConfigurationError("invalid epoch", err)
	}
	preOpen, _ := parseClock(cal.PreOpen)
	open, _ := parseClock(cal.RegularOpen)
	closeAt, _ := parseClock(cal.RegularClose)

	holidays := map[string]string{}
	halfDays := map[string]int{}
	if cal.UseBuiltinHolidays {
		holidays = calendar.NYSEHolidays()
		halfDays = calendar.NYSEHalfDays()
	}

	if cal.UseExchangeLibrary {
		from, to := cal.LibraryYears.From, cal.LibraryYears.To
		if from == 0 {
			from = epoch.Year()
		}
		if to == 0 {
			to = from + 3
		}
		extra, _, err := calendar.ExchangeHolidays(calendar.MICForSymbol(cal.Exchange), from, to)
		if err != nil {
			return calendar.Config{}, helpers.NewConfigurationError("exchange calendar lookup failed", err)
		}
		for key, name := range extra {
			if _, half := halfDays[key]; half {
				continue
			}
			if _, known := holidays[key]; !known {
				holidays[key] = name
			}
		}
	}

	for _, h := range cal.Holidays {
		name := h.Name
		if name == "" {
			name = "Holiday"
		}
		holidays[h.Date] = name
		delete(halfDays, h.Date)
	}
	for _, h := range cal.HalfDays {
		early, err := halfDayClose(h)
		if err != nil {
			return calendar.Config{}, helpers.NewConfigurationError("invalid half-day close", err)
		}
		halfDays[h.Date] = early
		delete(holidays, h.Date)
	}

	return calendar.Config{
		Location:          loc,
		Epoch:             epoch,
		PreOpenMinutes:    preOpen,
		OpenMinutes:       open,
		CloseMinutes:      closeAt,
		AfterHoursMinutes: cal.AfterHoursMinutes,
		Holidays:          holidays,
		HalfDays:          halfDays,
	}, nil
}

// BuildCalendar is CalendarConfig followed by calendar.New.
func (c *Config) BuildCalendar() (*calendar.Calendar, error) {
	cfg, err := c.CalendarConfig()
	if err != nil {
		return nil, err
	}
	cal, err := calendar.New(cfg)
	if err != nil {
		return nil, helpers.NewConfigurationError("invalid calendar tables", err)
	}
	return cal, nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}

// -----------------------------------------------------------------------------

// parseClock turns "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func halfDayClose(h models.MHalfDay) (int, error) {
	if h.Close == "" {
		return calendar.DefaultHalfDayClose, nil
	}
	return parseClock(h.Close)
}
