package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration. Unset keys leave the defaults
// untouched.
type FileConfig struct {
	Port               string `yaml:"port" toml:"port"`
	CORSOrigin         string `yaml:"cors_origin" toml:"cors_origin"`
	RateLimitPerMinute *int   `yaml:"rate_limit_per_minute" toml:"rate_limit_per_minute"`
	LogLevel           string `yaml:"log_level" toml:"log_level"`

	DataBackend   string `yaml:"data_backend" toml:"data_backend"`
	CSVPath       string `yaml:"csv_path" toml:"csv_path"`
	SQLiteDBPath  string `yaml:"sqlite_db_path" toml:"sqlite_db_path"`
	MongoURI      string `yaml:"mongo_uri" toml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database" toml:"mongo_database"`

	AMQPURL      string `yaml:"amqp_url" toml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange" toml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue" toml:"amqp_queue"`

	GoogleSpreadsheetID      string `yaml:"google_spreadsheet_id" toml:"google_spreadsheet_id"`
	GoogleSheetName          string `yaml:"google_sheet_name" toml:"google_sheet_name"`
	GoogleServiceAccountFile string `yaml:"google_service_account_file" toml:"google_service_account_file"`

	ExportPath   string `yaml:"export_path" toml:"export_path"`
	ExportFormat string `yaml:"export_format" toml:"export_format"`
	S3Bucket     string `yaml:"s3_bucket" toml:"s3_bucket"`
	S3Prefix     string `yaml:"s3_prefix" toml:"s3_prefix"`
	AWSRegion    string `yaml:"aws_region" toml:"aws_region"`

	SyncInterval string `yaml:"sync_interval" toml:"sync_interval"`
}

// LoadFile reads a TOML or YAML configuration file.
func LoadFile(filePath string) (*FileConfig, error) {
	fileExtension := strings.ToLower(filepath.Ext(filePath))

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fc FileConfig
	switch fileExtension {
	case ".toml":
		if err := toml.Unmarshal(fileData, &fc); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &fc); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	return &fc, nil
}

func (fc *FileConfig) applyTo(c *Config) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&c.Port, fc.Port)
	set(&c.CORSOrigin, fc.CORSOrigin)
	if fc.RateLimitPerMinute != nil {
		c.RateLimitPerMinute = *fc.RateLimitPerMinute
	}
	set(&c.LogLevel, strings.ToLower(fc.LogLevel))

	set(&c.DataBackend, strings.ToLower(fc.DataBackend))
	set(&c.CSVPath, fc.CSVPath)
	set(&c.SQLiteDBPath, fc.SQLiteDBPath)
	set(&c.MongoURI, fc.MongoURI)
	set(&c.MongoDatabase, fc.MongoDatabase)

	set(&c.AMQPURL, fc.AMQPURL)
	set(&c.AMQPExchange, fc.AMQPExchange)
	set(&c.AMQPQueue, fc.AMQPQueue)

	set(&c.GoogleSpreadsheetID, fc.GoogleSpreadsheetID)
	set(&c.GoogleSheetName, fc.GoogleSheetName)
	set(&c.GoogleServiceAccountFile, fc.GoogleServiceAccountFile)

	set(&c.ExportPath, fc.ExportPath)
	set(&c.ExportFormat, strings.ToLower(fc.ExportFormat))
	set(&c.S3Bucket, fc.S3Bucket)
	set(&c.S3Prefix, fc.S3Prefix)
	set(&c.AWSRegion, fc.AWSRegion)

	if fc.SyncInterval != "" {
		d, err := time.ParseDuration(fc.SyncInterval)
		if err != nil {
			return fmt.Errorf("invalid sync_interval %q: %w", fc.SyncInterval, err)
		}
		c.SyncInterval = d
	}
	return nil
}
