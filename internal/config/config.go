package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tailtalk/roomsync/internal/channel"
	"github.com/tailtalk/roomsync/internal/server"
	pkgconfig "github.com/tailtalk/roomsync/pkg/config"
	"github.com/tailtalk/roomsync/pkg/log"
)

// Client configures one engine instance: where the collaborators live and
// how much history to pull on load.
type Client struct {
	APIBaseURL   string         `mapstructure:"api_base_url"`
	ChannelURL   string         `mapstructure:"channel_url"`
	Credential   string         `mapstructure:"credential"`
	HistoryLimit int            `mapstructure:"history_limit"`
	ClockTick    time.Duration  `mapstructure:"clock_tick"`
	WebSocket    channel.Config `mapstructure:"websocket"`
	Log          log.Config     `mapstructure:"log"`
}

// Server wraps the dev server config with logging.
type Server struct {
	Host   string        `mapstructure:"host"`
	Port   int           `mapstructure:"port"`
	Server server.Config `mapstructure:"server"`
	Log    log.Config    `mapstructure:"log"`
}

// LoadClient reads the engine configuration.
func LoadClient() (*Client, error) {
	v, err := pkgconfig.Load("./config", "roomtail")
	if err != nil {
		return nil, err
	}

	v.SetDefault("api_base_url", "http://localhost:8090")
	v.SetDefault("channel_url", "ws://localhost:8090/channel")
	v.SetDefault("credential", "")
	v.SetDefault("history_limit", 50)
	v.SetDefault("clock_tick", "30s")
	setWebSocketDefaults(v, "websocket")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("log.component", "roomtail")

	v.BindEnv("api_base_url", "ROOMSYNC_API_BASE_URL")
	v.BindEnv("channel_url", "ROOMSYNC_CHANNEL_URL")
	v.BindEnv("credential", "ROOMSYNC_CREDENTIAL")
	v.BindEnv("history_limit", "ROOMSYNC_HISTORY_LIMIT")
	v.BindEnv("log.level", "ROOMSYNC_LOG_LEVEL")

	var cfg Client
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ClockTick = parseDuration(v, "clock_tick", 30*time.Second)
	fixWebSocketDurations(v, "websocket", &cfg.WebSocket)

	return &cfg, nil
}

// LoadServer reads the dev server configuration.
func LoadServer() (*Server, error) {
	v, err := pkgconfig.Load("./config", "roomsyncd")
	if err != nil {
		return nil, err
	}

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8090)
	v.SetDefault("server.token_secret", "dev-secret-change-me")
	v.SetDefault("server.token_ttl_hours", 24)
	v.SetDefault("server.db_path", "./roomsync.db")
	v.SetDefault("server.blob.backend", "local")
	v.SetDefault("server.blob.local.base_path", "./uploads")
	v.SetDefault("server.blob.local.public_url", "http://localhost:8090")
	setWebSocketDefaults(v, "server.websocket")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.component", "roomsyncd")

	v.BindEnv("port", "PORT")
	v.BindEnv("server.token_secret", "ROOMSYNC_TOKEN_SECRET")
	v.BindEnv("server.db_path", "ROOMSYNC_DB_PATH")
	v.BindEnv("server.blob.backend", "ROOMSYNC_BLOB_BACKEND")
	v.BindEnv("server.blob.s3.bucket", "ROOMSYNC_S3_BUCKET")
	v.BindEnv("server.blob.s3.endpoint", "ROOMSYNC_S3_ENDPOINT")
	v.BindEnv("server.blob.s3.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("server.blob.s3.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("log.level", "ROOMSYNC_LOG_LEVEL")

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	fixWebSocketDurations(v, "server.websocket", &cfg.Server.WebSocket)

	return &cfg, nil
}

func setWebSocketDefaults(v *viper.Viper, prefix string) {
	def := channel.DefaultConfig()
	v.SetDefault(prefix+".ping_interval", def.PingInterval.String())
	v.SetDefault(prefix+".pong_wait", def.PongWait.String())
	v.SetDefault(prefix+".write_wait", def.WriteWait.String())
	v.SetDefault(prefix+".max_message_size", def.MaxMessageSize)
	v.SetDefault(prefix+".send_buffer", def.SendBuffer)
}

func fixWebSocketDurations(v *viper.Viper, prefix string, cfg *channel.Config) {
	def := channel.DefaultConfig()
	cfg.PingInterval = parseDuration(v, prefix+".ping_interval", def.PingInterval)
	cfg.PongWait = parseDuration(v, prefix+".pong_wait", def.PongWait)
	cfg.WriteWait = parseDuration(v, prefix+".write_wait", def.WriteWait)
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
