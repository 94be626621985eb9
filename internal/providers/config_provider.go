package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"habitd/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "HABITD_LOG_LEVEL")
	viper.BindEnv("sync.remoteUrl", "HABITD_REMOTE_URL")
	viper.BindEnv("sync.interval", "HABITD_SYNC_INTERVAL")
	viper.BindEnv("identity.owner", "HABITD_OWNER")
	viper.BindEnv("identity.credential", "HABITD_CREDENTIAL")
	viper.BindEnv("identity.devMode", "HABITD_DEV_MODE")
	viper.BindEnv("persistence.saveInterval", "HABITD_SAVE_INTERVAL")
	viper.BindEnv("cache.enabled", "HABITD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "HABITD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "HabitSyncDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
