package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/maastricht-university/meeting-engagement/config"
)

type app struct {
	configPath string
	v          *viper.Viper
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: cfg.NewViper()}
	root := &cobra.Command{
		Use:           "engagement",
		Short:         "Per-speaker and per-meeting engagement analysis of recorded sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "path to config.yaml (default config/$CONFIG_ENV/config.yaml)")
	f.String("log-level", "", "trace|debug|info|warn|error")
	f.String("log-format", "", "json|text")
	f.String("store", "", "json|mongo")
	f.String("outputs", "", "directory for json records")
	f.String("mongo-uri", "", "MongoDB connection string")
	f.String("redis-addr", "", "Redis address for the job queue")
	a.bind(root, map[string]string{
		"log_level":     "log-level",
		"log_format":    "log-format",
		"store.kind":    "store",
		"store.outputs": "outputs",
		"mongo.uri":     "mongo-uri",
		"redis.addr":    "redis-addr",
	})

	root.AddCommand(a.analyzeCmd(), a.workerCmd(), a.enqueueCmd())
	return root
}

// bind maps config keys to flags of cmd. Persistent flags are looked up
// too.
func (a *app) bind(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		fl := cmd.Flags().Lookup(name)
		if fl == nil {
			fl = cmd.PersistentFlags().Lookup(name)
		}
		if fl != nil {
			_ = a.v.BindPFlag(key, fl)
		}
	}
}

// config loads the file, then applies environment and flag overrides.
func (a *app) config() (*cfg.Root, error) {
	c, err := cfg.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyOverrides(a.v); err != nil {
		return nil, err
	}
	return c, nil
}
