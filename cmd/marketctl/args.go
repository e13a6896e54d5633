package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Args struct {
	ServerURL   string
	CachePath   string
	SessionPath string
	Timeout     time.Duration
	LogLevel    string

	// command flags
	Search     string
	Category   uint
	UnreadOnly bool
	Title      string
	Desc       string
	Price      float64
	StartBid   float64
	Pickup     string
	Images     []string

	Command []string
}

func ParseArgs() Args {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".fleamarket")

	// client config
	pflag.String("server-url", "http://localhost:8080", "marketplace API base URL")
	pflag.String("cache-path", filepath.Join(dataDir, "cache.db"), "local cache database")
	pflag.String("session-path", filepath.Join(dataDir, "session.json"), "session file")
	pflag.Duration("timeout", 15*time.Second, "per command timeout")
	pflag.String("log-level", "warn", "")

	// command flags
	pflag.String("search", "", "search text for items")
	pflag.Uint("category", 0, "category id for items")
	pflag.Bool("unread", false, "only unread notifications")
	pflag.String("title", "", "listing title")
	pflag.String("description", "", "listing description")
	pflag.Float64("price", 0, "fixed price")
	pflag.Float64("starting-bid", 0, "auction starting bid")
	pflag.String("pickup", "", "pickup location")
	pflag.StringSlice("image", nil, "public image URL, repeatable")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("MARKETCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	return Args{
		ServerURL:   viper.GetString("server-url"),
		CachePath:   viper.GetString("cache-path"),
		SessionPath: viper.GetString("session-path"),
		Timeout:     viper.GetDuration("timeout"),
		LogLevel:    viper.GetString("log-level"),
		Search:      viper.GetString("search"),
		Category:    viper.GetUint("category"),
		UnreadOnly:  viper.GetBool("unread"),
		Title:       viper.GetString("title"),
		Desc:        viper.GetString("description"),
		Price:       viper.GetFloat64("price"),
		StartBid:    viper.GetFloat64("starting-bid"),
		Pickup:      viper.GetString("pickup"),
		Images:      viper.GetStringSlice("image"),
		Command:     pflag.Args(),
	}
}

func (args Args) Validate() bool {
	return args.ServerURL != "" && args.CachePath != "" && args.SessionPath != "" && len(args.Command) > 0
}
