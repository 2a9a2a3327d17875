package config

// Application constants
const (
	AppName    = "dtindex"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable (DTI_SERVER_PORT, ...).
	EnvPrefix = "DTI"

	// Dataset sources
	SourceFile   = "file"
	SourceSheets = "sheets"

	// Expected input files, tried in this order
	WorkbookFileName    = "合并后的文件.xlsx"
	FallbackCSVFileName = "股票数据合并结果.csv"

	// Explorer defaults
	DefaultMaxStocks   = 10
	DefaultRankingSize = 10

	// Export file names are ExportFilePrefix + timestamp + extension
	ExportFilePrefix = "股票数据_"
)

// Endpoints
const (
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
