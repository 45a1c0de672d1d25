package mode

import (
	"context"

	"suite-installer/internal/buildconfig"
	"suite-installer/internal/logger"
	"suite-installer/internal/retcode"
)

// ConfigMode writes the build configuration file when it is missing (or when asked
// to overwrite it) and shows the values the build will use.
type ConfigMode struct {
	base
	params ConfigParams
	env    *Env
}

// NewConfig returns the config mode.
func NewConfig(params ConfigParams, env *Env) *ConfigMode {
	return &ConfigMode{base: newBase(env, Config, Capabilities{}), params: params, env: env}
}

// Run implements Executor.
func (c *ConfigMode) Run(context.Context) Result {
	log := c.env.Log
	cfg := c.env.Config

	written, err := cfg.Write(c.params.Overwrite, buildconfig.Defaults(c.env.Manifest.InstallDir()))
	if err != nil {
		return Result{Code: retcode.ConfigError, Message: err.Error()}
	}

	if written {
		log.Info("Wrote build configuration to %s", logger.Bold(cfg.Path()))
		log.Info("Review the compilers and options below; edit the file to change them.")
	} else {
		log.Info("Using existing build configuration %s (last modified %s)", logger.Bold(cfg.Path()), cfg.LastModified())
		log.Debug("Pass --overwrite to regenerate it from defaults")
	}
	for _, key := range cfg.Keys() {
		value, _ := cfg.Get(key)
		log.Info("  %s = %s", key, logger.Blue(value))
	}
	return Result{}
}
