// Package config loads the service configuration.
//
// # Configuration Sources
//
// Values come from DTI_* environment variables (with struct-tag defaults) and an
// optional YAML file. The file is read from DTI_CONFIG_FILE, or config.yaml /
// configs/config.yaml in the working directory; keys it sets override the
// environment.
//
//	DTI_SERVER_PORT=8080
//	DTI_DATASET_FILES=合并后的文件.xlsx,股票数据合并结果.csv
//	DTI_DATASET_RELOAD_SCHEDULE="0 */6 * * *"
//	DTI_CACHE_ADDR=localhost:6379
//
// # Dataset Files
//
// Relative dataset files are looked up in the data directory, the working
// directory and next to the executable, see DatasetConfig.ResolveFile.
//
// # Testing
//
// Use Default() for a configuration that needs no environment.
package config
