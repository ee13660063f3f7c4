package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Source names where a resolved setting came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceCLI     Source = "cli"
	SourceDefault Source = "default"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Resolver applies env > CLI > default precedence to generator settings.
type Resolver struct {
	logger *zap.Logger
	lookup LookupFunc
}

// NewResolver creates a Resolver reading the process environment.
func NewResolver(logger *zap.Logger) Resolver {
	return Resolver{logger: logger, lookup: os.LookupEnv}
}

// WithLookup returns a copy of the Resolver that reads variables through fn.
func (r Resolver) WithLookup(fn LookupFunc) Resolver {
	r.lookup = fn
	return r
}

func (r Resolver) env(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if r.lookup == nil {
		return os.LookupEnv(key)
	}
	return r.lookup(key)
}

func (r Resolver) logConflict(setting, envVal, cliVal string) {
	if r.logger == nil {
		return
	}
	r.logger.Warn(
		"config: conflict for "+setting,
		zap.String("env", envVal),
		zap.String("cli", cliVal),
		zap.String("decision", "using env value"),
	)
}

func (r Resolver) logResolved(setting string, source Source, value string) {
	if r.logger == nil {
		return
	}
	r.logger.Debug("config: resolved "+setting, zap.String("source", string(source)), zap.String("value", value))
}

// String resolves a string setting. Env values are trimmed.
func (r Resolver) String(setting, envKey, cliVal string, cliSet bool, defaultVal string) string {
	envVal, envSet := r.env(envKey)
	envVal = strings.TrimSpace(envVal)

	if envSet && cliSet && envVal != cliVal {
		r.logConflict(setting, envVal, cliVal)
	}

	switch {
	case envSet:
		r.logResolved(setting, SourceEnv, envVal)
		return envVal
	case cliSet:
		r.logResolved(setting, SourceCLI, cliVal)
		return cliVal
	default:
		r.logResolved(setting, SourceDefault, defaultVal)
		return defaultVal
	}
}

// Bool resolves a boolean setting. Env values must parse with strconv.ParseBool.
func (r Resolver) Bool(setting, envKey string, cliVal bool, cliSet bool, defaultVal bool) (bool, error) {
	envVal, envSet := r.env(envKey)
	if !envSet {
		if cliSet {
			r.logResolved(setting, SourceCLI, strconv.FormatBool(cliVal))
			return cliVal, nil
		}
		r.logResolved(setting, SourceDefault, strconv.FormatBool(defaultVal))
		return defaultVal, nil
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(envVal))
	if err != nil {
		return false, fmt.Errorf("config %s: invalid boolean %q: %w", setting, envVal, err)
	}

	if cliSet && parsed != cliVal {
		r.logConflict(setting, envVal, strconv.FormatBool(cliVal))
	}

	r.logResolved(setting, SourceEnv, strconv.FormatBool(parsed))
	return parsed, nil
}
