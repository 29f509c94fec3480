package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Room     RoomConfig     `mapstructure:"room"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	// FrontendURL is the base URL used to build deep links in push notifications.
	FrontendURL string `mapstructure:"frontend_url"`
}

type RoomConfig struct {
	// IdleTTL evicts rooms untouched for this long. Zero disables the sweeper.
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	FinishedTTL   time.Duration `mapstructure:"finished_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type NotifyConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	ServerKey string `mapstructure:"server_key"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.rpc_address", ":9090")
	viper.SetDefault("room.sweep_interval", time.Minute)

	// PORT and FRONTEND_URL come from the environment in most deployments.
	viper.AutomaticEnv()
	viper.BindEnv("server.http_address", "PORT")
	viper.BindEnv("server.frontend_url", "FRONTEND_URL")
	viper.BindEnv("notify.endpoint", "PUSH_ENDPOINT")
	viper.BindEnv("notify.server_key", "PUSH_SERVER_KEY")

	err = viper.ReadInConfig()
	if err != nil {
		// The config file is optional; env vars and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	normalize(config)
	return config, nil
}

// normalize accepts a bare port number in server.http_address, the form PORT
// is usually set in.
func normalize(c *Config) {
	if c.Server.HTTPAddress != "" && c.Server.HTTPAddress[0] != ':' {
		allDigits := true
		for _, r := range c.Server.HTTPAddress {
			if r < '0' || r > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			c.Server.HTTPAddress = ":" + c.Server.HTTPAddress
		}
	}
}
