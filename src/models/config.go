package models

// MConfig Structure
type MConfig struct {
	Name      string          `yaml:"name" default:"market-confluence" validate:"required"`
	Host      string          `yaml:"host" default:"127.0.0.1" validate:"required"`
	Port      int             `yaml:"port" default:"8090" validate:"gt=1024,lte=65535"`
	LogLevel  string          `yaml:"log_level" default:"INFO" validate:"oneof=DEBUG INFO WARNING ERROR"`
	LogFormat string          `yaml:"log_format" default:"console" validate:"oneof=console json"`
	GrpcHost  string          `yaml:"grpc_host" default:"127.0.0.1"`
	GrpcPort  int             `yaml:"grpc_port" default:"9090" validate:"gte=0,lte=65535"`
	Storage   MStorageConfig  `yaml:"storage"`
	Engine    MEngineConfig   `yaml:"engine"`
	Calendar  MCalendarConfig `yaml:"calendar"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" default:"sqlite" validate:"oneof=sqlite postgres memory none"`
	DBPath             string `yaml:"db_path" default:"confluence_events.db"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days" default:"30" validate:"gte=1"`
	// MemoryCapacity is the ring size of the memory journal.
	MemoryCapacity int `yaml:"memory_capacity" default:"1000" validate:"gte=1"`
}

type MEngineConfig struct {
	ToleranceMinutes    float64 `yaml:"tolerance_minutes" default:"5" validate:"gt=0,lte=120"`
	MacroHorizonDays    int     `yaml:"macro_horizon_days" default:"90" validate:"gte=1,lte=730"`
	PollIntervalSeconds int     `yaml:"poll_interval_seconds" default:"60" validate:"gte=1"`
	// ClusterHorizonMinutes bounds cluster candidates; negative disables the bound.
	ClusterHorizonMinutes  float64 `yaml:"cluster_horizon_minutes" default:"60"`
	CleanupIntervalMinutes int     `yaml:"cleanup_interval_minutes" default:"60" validate:"gte=1"`
}

type MCalendarConfig struct {
	// Exchange is a MIC code ("xnys") or a ticker symbol whose suffix selects one.
	Exchange string `yaml:"exchange" default:"xnys"`
	Timezone string `yaml:"timezone" default:"America/New_York" validate:"required"`
	// Epoch anchors trading-day and trading-week indices ("2006-01-02").
	Epoch              string     `yaml:"epoch" default:"2024-01-01" validate:"required"`
	RegularOpen        string     `yaml:"regular_open" default:"09:30" validate:"required"`
	RegularClose       string     `yaml:"regular_close" default:"16:00" validate:"required"`
	PreOpen            string     `yaml:"pre_open" default:"04:00" validate:"required"`
	AfterHoursMinutes  int        `yaml:"after_hours_minutes" default:"240" validate:"gte=0"`
	UseBuiltinHolidays bool       `yaml:"use_builtin_holidays" default:"true"`
	UseExchangeLibrary bool       `yaml:"use_exchange_library"`
	LibraryYears       MYearRange `yaml:"library_years"`
	Holidays           []MHoliday `yaml:"holidays,omitempty" validate:"dive"`
	HalfDays           []MHalfDay `yaml:"half_days,omitempty" validate:"dive"`
}

type MYearRange struct {
	From int `yaml:"from" validate:"omitempty,gte=1971,lte=2199"`
	To   int `yaml:"to" validate:"omitempty,gte=1971,lte=2199"`
}

type MHoliday struct {
	Date string `yaml:"date" validate:"required"`
	Name string `yaml:"name"`
}

type MHalfDay struct {
	Date  string `yaml:"date" validate:"required"`
	Close string `yaml:"close" default:"13:00"`
}
