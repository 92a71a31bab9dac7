/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
// Package config loads the application configuration from a YAML file,
// after an optional .env file has populated the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/tomoncle/feeledger/database"
	"github.com/tomoncle/feeledger/notify"
	"github.com/tomoncle/feeledger/utils"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is read by Load when no env file is named.
const DefaultEnvFile = ".env"

type LogConfig struct {
	Level          string            `json:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	ConsoleFormat  string            `json:"console_format" yaml:"console_format" validate:"omitempty,oneof=text json"`
	FileEnabled    bool              `json:"file_enabled" yaml:"file_enabled"`
	FileDir        string            `json:"file_dir" yaml:"file_dir"`
	FileMaxAgeDays int               `json:"file_max_age_days" yaml:"file_max_age_days" validate:"gte=0"`
	Loggers        map[string]string `json:"loggers" yaml:"loggers"` // per logger level, e.g. DATABASE: debug
}

type FeesConfig struct {
	SMSTemplateCode int    `json:"sms_template_code" yaml:"sms_template_code" validate:"gte=0"`
	VoucherHead     string `json:"voucher_head" yaml:"voucher_head" validate:"max=255"`
}

type Config struct {
	Database database.Config `json:"database" yaml:"database"`
	Log      LogConfig       `json:"log" yaml:"log"`
	Fees     FeesConfig      `json:"fees" yaml:"fees"`
}

// Default returns the settings used for keys missing from the file.
func Default() *Config {
	conn := database.DefaultConnectionConfig()
	return &Config{
		Database: database.Config{
			ConnectionConfig:  *conn,
			DataMigrateConfig: database.DataMigrateConfig{EnableMigrateOnStartup: true},
		},
		Log: LogConfig{
			Level:          "info",
			ConsoleFormat:  "text",
			FileDir:        "logs",
			FileMaxAgeDays: 7,
		},
		Fees: FeesConfig{
			SMSTemplateCode: notify.TemplatePaymentConfirmation,
		},
	}
}

var validate = validator.New()

// Load reads the YAML file at path over Default. The env files (".env" when
// none is given) are loaded first; a missing env file is not an error.
// ${VAR} references in the YAML are expanded and DB_* variables override
// the database connection before validation.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse([]byte(os.ExpandEnv(string(raw))))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	database.OverrideFromEnv(&cfg.Database.ConnectionConfig)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyLogging pushes the log section into the logger registry.
func (c *Config) ApplyLogging() {
	l := c.Log
	utils.ConfigureConsoleLogFormat(l.ConsoleFormat)
	utils.ConfigureFileLog(l.FileEnabled, l.FileDir, l.FileMaxAgeDays)
	if l.Level != "" {
		utils.ConfigureLogLevel(l.Level)
	}
	for name, lvl := range l.Loggers {
		// loggers created later pick up the global level only
		utils.NewLogger(strings.ToUpper(name))
		utils.SetLoggerLevel(strings.ToUpper(name), lvl)
	}
}

// ConnectTimeout is a convenience for the CLI health command.
func (c *Config) ConnectTimeout() time.Duration {
	if t := c.Database.ConnectionConfig.ConnectTimeout; t > 0 {
		return t
	}
	return 30 * time.Second
}
