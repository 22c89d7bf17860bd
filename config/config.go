// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/msd/model"
	"github.com/gorse-io/msd/model/cf"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration of cross validation runs.
type Config struct {
	Database        DatabaseConfig        `mapstructure:"database"`
	Recommend       RecommendConfig       `mapstructure:"recommend"`
	CrossValidation CrossValidationConfig `mapstructure:"cross_validation"`
	Params          ParamsConfig          `mapstructure:"params"`
}

// DatabaseConfig is the configuration of the data source.
type DatabaseConfig struct {
	DataStore string `mapstructure:"data_store" validate:"required"`
	Table     string `mapstructure:"table" validate:"required"`
}

// RecommendConfig is the configuration of recommenders.
type RecommendConfig struct {
	N          int      `mapstructure:"n" validate:"gt=0"`
	Algorithms []string `mapstructure:"algorithms" validate:"min=1,dive,algorithm"`
}

// CrossValidationConfig is the configuration of repeated K-fold evaluation.
type CrossValidationConfig struct {
	Folds int `mapstructure:"folds" validate:"gte=2"`
	Runs  int `mapstructure:"runs" validate:"gt=0"`
	Jobs  int `mapstructure:"jobs" validate:"gt=0"`
}

// ParamsConfig holds hyper-parameters shared by recommenders.
type ParamsConfig struct {
	RandomState              int64   `mapstructure:"random_state"`
	NumNeighbors             int     `mapstructure:"num_neighbors" validate:"gt=0"`
	WeightCoefficient        float64 `mapstructure:"weight_coefficient" validate:"gte=0,lte=1"`
	NormalizationCoefficient float64 `mapstructure:"normalization_coefficient" validate:"gt=0"`
	ItemAlpha                float64 `mapstructure:"item_alpha" validate:"gte=0,lte=1"`
	NumBags                  int     `mapstructure:"num_bags" validate:"gt=0"`
}

// ToParams converts the configuration to hyper-parameters.
func (config *ParamsConfig) ToParams(jobs int) model.Params {
	return model.Params{
		model.RandomState:              config.RandomState,
		model.NumNeighbors:             config.NumNeighbors,
		model.WeightCoefficient:        config.WeightCoefficient,
		model.NormalizationCoefficient: config.NormalizationCoefficient,
		model.ItemAlpha:                config.ItemAlpha,
		model.NumBags:                  config.NumBags,
		model.NumJobs:                  jobs,
	}
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DataStore: ".",
			Table:     "listening.csv",
		},
		Recommend: RecommendConfig{
			N:          10,
			Algorithms: append(cf.Names(), cf.BaggingPrefix+cf.KNNName),
		},
		CrossValidation: CrossValidationConfig{
			Folds: 10,
			Runs:  5,
			Jobs:  1,
		},
		Params: ParamsConfig{
			RandomState:              0,
			NumNeighbors:             80,
			WeightCoefficient:        0.8,
			NormalizationCoefficient: 8.0,
			ItemAlpha:                0.5,
			NumBags:                  5,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [database]
	viper.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	viper.SetDefault("database.table", defaultConfig.Database.Table)
	// [recommend]
	viper.SetDefault("recommend.n", defaultConfig.Recommend.N)
	viper.SetDefault("recommend.algorithms", defaultConfig.Recommend.Algorithms)
	// [cross_validation]
	viper.SetDefault("cross_validation.folds", defaultConfig.CrossValidation.Folds)
	viper.SetDefault("cross_validation.runs", defaultConfig.CrossValidation.Runs)
	viper.SetDefault("cross_validation.jobs", defaultConfig.CrossValidation.Jobs)
	// [params]
	viper.SetDefault("params.random_state", defaultConfig.Params.RandomState)
	viper.SetDefault("params.num_neighbors", defaultConfig.Params.NumNeighbors)
	viper.SetDefault("params.weight_coefficient", defaultConfig.Params.WeightCoefficient)
	viper.SetDefault("params.normalization_coefficient", defaultConfig.Params.NormalizationCoefficient)
	viper.SetDefault("params.item_alpha", defaultConfig.Params.ItemAlpha)
	viper.SetDefault("params.num_bags", defaultConfig.Params.NumBags)
}

type configBinding struct {
	key string
	env string
}

func bindEnv() error {
	bindings := []configBinding{
		{"database.data_store", "MSD_DATA_STORE"},
		{"database.table", "MSD_TABLE"},
		{"recommend.n", "MSD_N"},
		{"recommend.algorithms", "MSD_ALGORITHMS"},
		{"cross_validation.folds", "MSD_FOLDS"},
		{"cross_validation.runs", "MSD_RUNS"},
		{"cross_validation.jobs", "MSD_JOBS"},
		{"params.random_state", "MSD_RANDOM_STATE"},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.key, binding.env); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a TOML file. Defaults are used for missing
// keys and environment variables take precedence. An empty path loads defaults
// and environment variables only.
func LoadConfig(path string) (*Config, error) {
	viper.Reset()
	setDefault()
	if err := bindEnv(); err != nil {
		return nil, errors.Trace(err)
	}
	viper.SetConfigType("toml")
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := viper.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

func validateAlgorithm(fl validator.FieldLevel) bool {
	_, err := cf.NewModel(strings.TrimSpace(fl.Field().String()), 1, nil)
	return err == nil
}

// Validate checks values. Invalid values are reported as NotValid errors.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("algorithm", validateAlgorithm); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}
