package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	SSH struct {
		// Central device credentials (TACACS-backed); per-device
		// credentials are deliberately not supported.
		Username       string        `mapstructure:"username"`
		Password       string        `mapstructure:"password"`
		EnablePassword string        `mapstructure:"enable_password"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
		CommandTimeout time.Duration `mapstructure:"command_timeout"`
		SettleInterval time.Duration `mapstructure:"settle_interval"`
	} `mapstructure:"ssh"`
	Worker struct {
		PoolSize   int `mapstructure:"pool_size"`
		QueueDepth int `mapstructure:"queue_depth"`
	} `mapstructure:"worker"`
	Webhook struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"webhook"`
	Ansible struct {
		Binary  string        `mapstructure:"binary"`
		WorkDir string        `mapstructure:"work_dir"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"ansible"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// LoadConfig loads the configuration from a file and the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("netchange")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults plus environment
		// variables are a complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("ssh.connect_timeout", 30*time.Second)
	viper.SetDefault("ssh.command_timeout", 60*time.Second)
	viper.SetDefault("ssh.settle_interval", 2*time.Second)
	viper.SetDefault("worker.pool_size", 4)
	viper.SetDefault("worker.queue_depth", 64)
	viper.SetDefault("webhook.timeout", 10*time.Second)
	viper.SetDefault("ansible.binary", "ansible-playbook")
	viper.SetDefault("ansible.timeout", 10*time.Minute)
}
