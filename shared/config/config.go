package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

// Duration parses yaml values like "1h" or "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type Public struct {
	Pg          Pg            `yaml:"pg"`
	Queue       string        `yaml:"queue"` // durable queue shared by both services
	JwtIssuer   string        `yaml:"jwt_issuer"`
	JwtTTL      Duration      `yaml:"jwt_ttl"`
	CepBaseURL  string        `yaml:"cep_base_url"`
	CorsOrigins []string      `yaml:"cors_origins"`
	UserPort    string        `yaml:"user_port"`
	NotifyPort  string        `yaml:"notify_port"`
	LogLevel    string        `yaml:"log_level"`
	LogJSON     bool          `yaml:"log_json"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

// Private holds secrets kept out of the public config file.
type Private struct {
	JwtKey  string `yaml:"jwt_key"`
	AmqpURL string `yaml:"amqp_url"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return time.Duration(c.Public.JwtTTL)
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + configPath)
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder.
// Config is mandatory, so any failure panics at startup.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{public, private}
}
