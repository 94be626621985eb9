package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type SyncConfig struct {
	RemoteURL        string        `yaml:"remoteUrl" validate:"required|fullUrl"`
	Interval         time.Duration `yaml:"interval" validate:"required|min:1"`
	RolloverInterval time.Duration `yaml:"rolloverInterval" validate:"required|min:1"`
	RequestTimeout   time.Duration `yaml:"requestTimeout" validate:"required|min:1"`
	WeekStartsOn     int           `yaml:"weekStartsOn" validate:"int|min:0|max:6"`
}

type IdentityConfig struct {
	Owner        string `yaml:"owner" validate:"required|email"`
	Credential   string `yaml:"credential"`
	DevMode      bool   `yaml:"devMode"`
	TokenInfoURL string `yaml:"tokenInfoUrl"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Sync        SyncConfig     `yaml:"sync"`
	Identity    IdentityConfig `yaml:"identity"`
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Logger      LoggerConfig   `yaml:"logger"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}
