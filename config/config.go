package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Service struct {
	URL string `yaml:"url"`
}
type Services struct {
	ASR         Service       `yaml:"asr"`
	Diarization Service       `yaml:"diarization"`
	Emotion     Service       `yaml:"emotion"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}
type Audio struct {
	SampleRate int `yaml:"sample_rate"`
}
type Recluster struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"`
}
type Merger struct {
	MinSpeakerDuration float64   `yaml:"min_speaker_duration"`
	MaxMergeGap        float64   `yaml:"max_merge_gap"`
	Recluster          Recluster `yaml:"recluster"`
}
type Silence struct {
	FrameMs         int     `yaml:"frame_ms"`
	ThresholdDB     float64 `yaml:"threshold_db"`
	AbsoluteFloorDB float64 `yaml:"absolute_floor_db"`
	MinPause        float64 `yaml:"min_pause"`
}
type Engagement struct {
	Balance string `yaml:"balance"` // even|peak
}
type Mongo struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}
type Store struct {
	Kind    string `yaml:"kind"` // json|mongo
	Outputs string `yaml:"outputs"`
	Mongo   Mongo  `yaml:"mongo"`
}
type Queue struct {
	RedisAddr      string `yaml:"redis_addr"`
	Stream         string `yaml:"stream"`
	Group          string `yaml:"group"`
	ConsumerPrefix string `yaml:"consumer_prefix"`
	Consumers      int    `yaml:"consumers"`
}
type Root struct {
	Pipeline struct {
		Name       string        `yaml:"name"`
		Version    string        `yaml:"version"`
		LogLvl     string        `yaml:"log_level"`
		LogFormat  string        `yaml:"log_format"`
		JobTimeout time.Duration `yaml:"job_timeout"`
		Workers    int           `yaml:"workers"`
	} `yaml:"pipeline"`
	Audio      Audio      `yaml:"audio"`
	Services   Services   `yaml:"services"`
	Merger     Merger     `yaml:"merger"`
	Silence    Silence    `yaml:"silence"`
	Engagement Engagement `yaml:"engagement"`
	Store      Store      `yaml:"store"`
	Queue      Queue      `yaml:"queue"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Root {
	var c Root
	c.Pipeline.Name = "meeting-engagement"
	c.Pipeline.Version = "1.0.0"
	c.Pipeline.LogLvl = "info"
	c.Pipeline.LogFormat = "json"
	c.Pipeline.JobTimeout = 30 * time.Minute
	c.Pipeline.Workers = 4
	c.Audio.SampleRate = 16000
	c.Services.Timeout = 300 * time.Second
	c.Services.MaxRetries = 3
	c.Merger = Merger{
		MinSpeakerDuration: 0.3,
		MaxMergeGap:        0.5,
		Recluster:          Recluster{Threshold: 0.7},
	}
	c.Silence = Silence{FrameMs: 20, ThresholdDB: -40, AbsoluteFloorDB: -80, MinPause: 0.3}
	c.Engagement.Balance = "even"
	c.Store = Store{
		Kind:    "json",
		Outputs: "outputs",
		Mongo:   Mongo{URI: "mongodb://localhost:27017", Database: "classroom", Collection: "meetings"},
	}
	c.Queue = Queue{
		RedisAddr:      "localhost:6379",
		Stream:         "engagement:jobs",
		Group:          "engagement-workers",
		ConsumerPrefix: "c",
		Consumers:      2,
	}
	return &c
}

// Load reads the YAML config at path. With an empty path it looks in
// config/<CONFIG_ENV>/config.yaml and then src/shared/config.yaml; when no
// file exists the defaults are returned.
func Load(path string) (*Root, error) {
	guess := []string{path}
	if path == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		guess = []string{
			filepath.Join("config", env, "config.yaml"),
			filepath.Join("src", "shared", "config.yaml"),
		}
	}
	for _, p := range guess {
		f, err := os.Open(p)
		if errors.Is(err, fs.ErrNotExist) && path == "" {
			continue
		}
		if err != nil {
			return nil, err
		}
		defer f.Close()
		cfg := Default()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", p, err)
		}
		return cfg, cfg.Validate()
	}
	return Default(), nil
}

// ApplyOverrides copies values set in v (environment with prefix ENGAGE_ or
// bound flags) over the loaded file.
func (c *Root) ApplyOverrides(v *viper.Viper) error {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	str("log_level", &c.Pipeline.LogLvl)
	str("log_format", &c.Pipeline.LogFormat)
	num("workers", &c.Pipeline.Workers)
	if v.IsSet("job_timeout") {
		c.Pipeline.JobTimeout = v.GetDuration("job_timeout")
	}
	str("services.asr.url", &c.Services.ASR.URL)
	str("services.diarization.url", &c.Services.Diarization.URL)
	str("services.emotion.url", &c.Services.Emotion.URL)
	if v.IsSet("recluster") {
		c.Merger.Recluster.Enabled = v.GetBool("recluster")
	}
	str("balance", &c.Engagement.Balance)
	str("store.kind", &c.Store.Kind)
	str("store.outputs", &c.Store.Outputs)
	str("mongo.uri", &c.Store.Mongo.URI)
	str("mongo.database", &c.Store.Mongo.Database)
	str("redis.addr", &c.Queue.RedisAddr)
	str("queue.stream", &c.Queue.Stream)
	num("queue.consumers", &c.Queue.Consumers)
	return c.Validate()
}

// NewViper returns a viper instance reading ENGAGE_* environment variables,
// ex: ENGAGE_MONGO_URI for key "mongo.uri".
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ENGAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Root) Validate() error {
	var errs []error
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, errors.New("audio.sample_rate must be positive"))
	}
	if c.Merger.MinSpeakerDuration < 0 || c.Merger.MaxMergeGap < 0 {
		errs = append(errs, errors.New("merger thresholds must not be negative"))
	}
	if c.Merger.Recluster.Threshold < 0 || c.Merger.Recluster.Threshold > 1 {
		errs = append(errs, errors.New("merger.recluster.threshold must be in [0,1]"))
	}
	if c.Silence.FrameMs <= 0 {
		errs = append(errs, errors.New("silence.frame_ms must be positive"))
	}
	if c.Silence.MinPause < 0 {
		errs = append(errs, errors.New("silence.min_pause must not be negative"))
	}
	switch c.Engagement.Balance {
	case "even", "peak":
	default:
		errs = append(errs, fmt.Errorf("engagement.balance %q: want even|peak", c.Engagement.Balance))
	}
	switch c.Store.Kind {
	case "json", "mongo":
	default:
		errs = append(errs, fmt.Errorf("store.kind %q: want json|mongo", c.Store.Kind))
	}
	if c.Pipeline.Workers < 0 || c.Queue.Consumers < 0 {
		errs = append(errs, errors.New("worker counts must not be negative"))
	}
	return errors.Join(errs...)
}
