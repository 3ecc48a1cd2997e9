package datamodels

type MvagentConfig struct {
	AgentConfig    AgentConfig         `mapstructure:"agent"`
	StatsConfig    AssetStatsConfig    `mapstructure:"asset_stats"`
	HistoryConfig  HistoryWriterConfig `mapstructure:"history"`
	DatabaseConfig PostgresConfig      `mapstructure:"postgres"`
	ServerConfig   ServerConfig        `mapstructure:"server"`
	SimConfig      SimConfig           `mapstructure:"sim"`
}

// AgentConfig is the construction-time snapshot the core recognizes. Watched
// assets, initial shares, and initial prices are index-aligned; a belief file,
// when set, overrides all three.
type AgentConfig struct {
	AgentID         string    `mapstructure:"agent_id"`
	Capital         float64   `mapstructure:"capital"`
	RiskFreeRate    float64   `mapstructure:"risk_free_rate"`
	StepRate        float64   `mapstructure:"step_rate"`
	RefreshInterval int64     `mapstructure:"refresh_interval"`
	RiskAversion    float64   `mapstructure:"risk_aversion"`
	WatchedAssets   []Asset   `mapstructure:"watched_assets"`
	InitialShares   []int     `mapstructure:"initial_shares"`
	InitialPrices   []float64 `mapstructure:"initial_prices"`
	BeliefFile      string    `mapstructure:"belief_file"`
}

type AssetStatsConfig struct {
	FilePath string `mapstructure:"file_path"`
}

type HistoryWriterConfig struct {
	FileWriter bool   `mapstructure:"file_writer"`
	FilePath   string `mapstructure:"file_path"`
	FileFormat string `mapstructure:"file_format"`
	DbWriter   bool   `mapstructure:"db_writer"`
	WsWriter   bool   `mapstructure:"ws_writer"`
}

type PostgresConfig struct {
	Database string `mapstructure:"database"`
	Host     string `mapstructure:"host"`
	Password string `mapstructure:"password"`
	Port     int    `mapstructure:"port"`
	SSL      struct {
		CA   string `mapstructure:"ca"`
		Cert string `mapstructure:"cert"`
		Key  string `mapstructure:"key"`
		Mode string `mapstructure:"mode"`
	} `mapstructure:"ssl"`
	URI  string `mapstructure:"uri"`
	User string `mapstructure:"user"`
}

type ServerConfig struct {
	Port           string `mapstructure:"port"`
	HealthEndpoint string `mapstructure:"health_endpoint"`
	WsEndpoint     string `mapstructure:"ws_endpoint"`
}

type SimConfig struct {
	Duration int64 `mapstructure:"duration"`
	Seed     int64 `mapstructure:"seed"`
}
