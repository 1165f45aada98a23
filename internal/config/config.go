// Package config loads the run's YAML configuration file, mirroring
// reinforcement.FromYaml's viper-then-yaml.v3 two-step unmarshal, and
// layers in the POPULATION/STEPS/DEBUG/COMMAND/SEED process-environment
// overrides the envelope fields support.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/niceyeti/mediaworld/internal/simerr"
	"github.com/niceyeti/mediaworld/internal/simparams"
)

// fileSchema is the on-disk YAML shape, all uppercase keys per spec §6.
// It mirrors simparams.Params/RunMeta rather than reusing those types
// directly with mapstructure tags, so the runtime types carry no
// file-format tags. Unrecognized keys are ignored when unmarshalling; a
// missing key leaves its field zero, and Load then either keeps the
// simparams.Default() value or, for the three required fields, returns a
// ConfigError.
type fileSchema struct {
	Population  int `mapstructure:"POPULATION"`
	NPublishers int `mapstructure:"N_PUBLISHERS"`
	NPlatforms  int `mapstructure:"N_PLATFORMS"`
	GridSize    int `mapstructure:"GRID_SIZE"`

	ContactRate        float64 `mapstructure:"CONTACT_RATE"`
	GravityStretch     float64 `mapstructure:"GRAVITY_STRETCH"`
	MaxInfluence       float64 `mapstructure:"MAX_INFLUENCE"`
	DataPerConsume     float64 `mapstructure:"DATA_PER_CONSUME"`
	BaseSignupRate     float64 `mapstructure:"BASE_SIGNUP_RATE"`
	RevenuePerAd       float64 `mapstructure:"REVENUE_PER_AD"`
	DefaultTrust       float64 `mapstructure:"DEFAULT_TRUST"`
	UnfollowTrust      float64 `mapstructure:"UNFOLLOW_TRUST"`
	FollowTrust        float64 `mapstructure:"FOLLOW_TRUST"`
	UnsubscribeTrust   float64 `mapstructure:"UNSUBSCRIBE_TRUST"`
	SubscribeTrust     float64 `mapstructure:"SUBSCRIBE_TRUST"`
	BaseConversionRate float64 `mapstructure:"BASE_CONVERSION_RATE"`
	MaxConversionRate  float64 `mapstructure:"MAX_CONVERSION_RATE"`
	CostPerQuality     float64 `mapstructure:"COST_PER_QUALITY"`
	Economy            float64 `mapstructure:"ECONOMY"`

	ContentSampleSize int  `mapstructure:"CONTENT_SAMPLE_SIZE"`
	MaxPlatforms      int  `mapstructure:"MAX_PLATFORMS"`
	UnsubscribeLag    int  `mapstructure:"UNSUBSCRIBE_LAG"`
	MaxSharedContent  int  `mapstructure:"MAX_SHARED_CONTENT"`
	ParallelConsume   bool `mapstructure:"PARALLEL_CONSUME"`

	Publisher struct {
		RevenuePerSubscriber float64 `mapstructure:"REVENUE_PER_SUBSCRIBER"`
		BaseBudget           float64 `mapstructure:"BASE_BUDGET"`
	} `mapstructure:"PUBLISHER"`

	Agent struct {
		AttentionBudget float64 `mapstructure:"ATTENTION_BUDGET"`
	} `mapstructure:"AGENT"`

	Publishers []struct {
		BaseBudget float64 `mapstructure:"BASE_BUDGET"`
		Motive     string  `mapstructure:"MOTIVE"`
	} `mapstructure:"PUBLISHERS"`

	Steps   int    `mapstructure:"STEPS"`
	Debug   bool   `mapstructure:"DEBUG"`
	Command bool   `mapstructure:"COMMAND"`
	Seed    int64  `mapstructure:"SEED"`
}

// RunMeta is the envelope data around a run that isn't a simulation
// tunable: how many ticks to run, whether to record snapshots, whether
// to wait on the interactive control channel, and the RNG seed.
type RunMeta struct {
	Steps   int
	Debug   bool
	Command bool
	Seed    int64
}

// motiveFromString maps the PUBLISHERS[].MOTIVE string to its enum,
// defaulting to Profit for an unrecognized or empty value.
func motiveFromString(s string) simparams.Motive {
	switch s {
	case "Civic":
		return simparams.MotiveCivic
	case "Influence":
		return simparams.MotiveInfluence
	default:
		return simparams.MotiveProfit
	}
}

// Load reads the YAML file at path via viper (matching
// reinforcement.FromYaml's SetConfigFile/SetConfigType/AddConfigPath/
// ReadInConfig/Unmarshal sequence), re-marshals into yaml.v3 to catch any
// type mismatch viper's mapstructure pass let through, validates the
// three required fields, and applies process-environment overrides for
// POPULATION/STEPS/DEBUG/COMMAND/SEED.
func Load(path string) (simparams.Params, RunMeta, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return simparams.Params{}, RunMeta{}, &simerr.ConfigError{Err: err}
	}

	bindEnvOverrides(vp)

	raw := &fileSchema{}
	if err := vp.Unmarshal(raw); err != nil {
		return simparams.Params{}, RunMeta{}, &simerr.ConfigError{Err: err}
	}

	spec, err := yaml.Marshal(raw)
	if err != nil {
		return simparams.Params{}, RunMeta{}, &simerr.ConfigError{Err: err}
	}
	schema := &fileSchema{}
	if err := yaml.Unmarshal(spec, schema); err != nil {
		return simparams.Params{}, RunMeta{}, &simerr.ConfigError{Err: err}
	}

	if schema.Population <= 0 {
		return simparams.Params{}, RunMeta{}, &simerr.ConfigError{Field: "POPULATION", Err: errRequired}
	}
	if schema.NPublishers <= 0 {
		return simparams.Params{}, RunMeta{}, &simerr.ConfigError{Field: "N_PUBLISHERS", Err: errRequired}
	}
	if schema.GridSize <= 0 {
		return simparams.Params{}, RunMeta{}, &simerr.ConfigError{Field: "GRID_SIZE", Err: errRequired}
	}

	params := simparams.Default()
	params.Population = schema.Population
	params.NPublishers = schema.NPublishers
	params.NPlatforms = schema.NPlatforms
	params.GridSize = schema.GridSize
	overrideIfSet(&params.ContactRate, schema.ContactRate)
	overrideIfSet(&params.GravityStretch, schema.GravityStretch)
	overrideIfSet(&params.MaxInfluence, schema.MaxInfluence)
	overrideIfSet(&params.DataPerConsume, schema.DataPerConsume)
	overrideIfSet(&params.BaseSignupRate, schema.BaseSignupRate)
	overrideIfSet(&params.RevenuePerAd, schema.RevenuePerAd)
	overrideIfSet(&params.DefaultTrust, schema.DefaultTrust)
	overrideIfSet(&params.UnfollowTrust, schema.UnfollowTrust)
	overrideIfSet(&params.FollowTrust, schema.FollowTrust)
	overrideIfSet(&params.UnsubscribeTrust, schema.UnsubscribeTrust)
	overrideIfSet(&params.SubscribeTrust, schema.SubscribeTrust)
	overrideIfSet(&params.BaseConversionRate, schema.BaseConversionRate)
	overrideIfSet(&params.MaxConversionRate, schema.MaxConversionRate)
	overrideIfSet(&params.CostPerQuality, schema.CostPerQuality)
	overrideIfSet(&params.Economy, schema.Economy)
	if schema.ContentSampleSize > 0 {
		params.ContentSampleSize = schema.ContentSampleSize
	}
	if schema.MaxPlatforms > 0 {
		params.MaxPlatforms = schema.MaxPlatforms
	}
	if schema.UnsubscribeLag > 0 {
		params.UnsubscribeLag = schema.UnsubscribeLag
	}
	if schema.MaxSharedContent > 0 {
		params.MaxSharedContent = schema.MaxSharedContent
	}
	params.ParallelConsume = schema.ParallelConsume
	overrideIfSet(&params.Publisher.RevenuePerSubscriber, schema.Publisher.RevenuePerSubscriber)
	overrideIfSet(&params.Publisher.BaseBudget, schema.Publisher.BaseBudget)
	overrideIfSet(&params.Agent.AttentionBudget, schema.Agent.AttentionBudget)

	for _, seed := range schema.Publishers {
		params.Publishers = append(params.Publishers, simparams.PublisherSeed{
			BaseBudget: seed.BaseBudget,
			Motive:     motiveFromString(seed.Motive),
		})
	}

	meta := RunMeta{
		Steps:   schema.Steps,
		Debug:   schema.Debug,
		Command: schema.Command,
		Seed:    schema.Seed,
	}

	return params, meta, nil
}

// overrideIfSet copies src into dst only when src is non-zero, leaving
// the simparams.Default() value in place for fields the YAML omitted.
func overrideIfSet(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}

// bindEnvOverrides wires the five envelope fields to their process
// environment variables, per spec §6 ("Envelope fields ... overridable
// via process environment").
func bindEnvOverrides(vp *viper.Viper) {
	_ = vp.BindEnv("POPULATION", "POPULATION")
	_ = vp.BindEnv("STEPS", "STEPS")
	_ = vp.BindEnv("DEBUG", "DEBUG")
	_ = vp.BindEnv("COMMAND", "COMMAND")
	_ = vp.BindEnv("SEED", "SEED")
}

var errRequired = requiredFieldError{}

type requiredFieldError struct{}

func (requiredFieldError) Error() string { return "required field missing or non-positive" }

// SeedFromEnvOrTime resolves the effective RNG seed: explicit SEED env
// var wins, then the config file's SEED, defaulting to 0 (deterministic)
// if neither is set.
func SeedFromEnvOrTime(meta RunMeta) int64 {
	if v := os.Getenv("SEED"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return meta.Seed
}
