package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanGreenup/lilium-sub000/pkg/backup"
	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var (
	cfgFile string
	Owner   string
)

func InitConfig() {
	// A .env in the working directory may provide LILIUM_* variables.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "lilium")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("LILIUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "lilium")
	viper.SetDefault("data_dir", dataDir)
	viper.SetDefault("owner", defaultOwner())
	viper.SetDefault("default_syntax", models.DefaultSyntax)
	viper.SetDefault("history_limit", 500)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("backup.dir", filepath.Join(dataDir, "backups"))
	viper.SetDefault("backup.check_interval", time.Minute)

	// A missing config file is fine; defaults and env apply.
	_ = viper.ReadInConfig()
}

func defaultOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

// NewLogger builds the service logger at the configured level.
func NewLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logrus.NewEntry(logger)
}

func InitService() (*service.Service, error) {
	config := &service.Config{
		DataDir:       viper.GetString("data_dir"),
		DefaultSyntax: viper.GetString("default_syntax"),
		HistoryLimit:  viper.GetInt("history_limit"),
	}
	return service.New(config, NewLogger())
}

// ResolveOwner returns the --owner flag if set, otherwise the configured owner.
func ResolveOwner() string {
	if Owner != "" {
		return Owner
	}
	return viper.GetString("owner")
}

// BackupDir is where tiered snapshots are written.
func BackupDir() string {
	return viper.GetString("backup.dir")
}

// BackupCheckInterval is how often a running snapshotter checks its tiers.
func BackupCheckInterval() time.Duration {
	return viper.GetDuration("backup.check_interval")
}

// BackupTiers reads backup.tiers, falling back to the defaults.
func BackupTiers() ([]backup.Tier, error) {
	if !viper.IsSet("backup.tiers") {
		return backup.DefaultTiers(), nil
	}
	var tiers []backup.Tier
	if err := viper.UnmarshalKey("backup.tiers", &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/lilium/config.yaml)")
	cmd.PersistentFlags().StringVarP(&Owner, "owner", "O", "", "Owner whose tree to operate on (default from config or $USER)")
}
