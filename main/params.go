// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/vaultvm/sdk/program"
	"github.com/ava-labs/vaultvm/vaultvm"
)

const (
	envPrefix = "VAULTVM"

	versionKey             = "version"
	httpHostKey            = "http-host"
	httpPortKey            = "http-port"
	logLevelKey            = "log-level"
	genesisFileKey         = "genesis-file"
	dbDirKey               = "db-dir"
	programIDKey           = "program-id"
	lamportsPerByteYearKey = "lamports-per-byte-year"
	exemptionThresholdKey  = "exemption-threshold"
	accountCacheSizeKey    = "account-cache-size"
	maxInvokeDepthKey      = "max-invoke-depth"
)

var (
	errBadPort           = errors.New("http port must be below 65536")
	errBadThreshold      = errors.New("exemption threshold must not be negative")
	errBadMaxInvokeDepth = errors.New("max invoke depth must be at least 1")
)

type config struct {
	HTTPHost    string
	HTTPPort    uint
	LogLevel    string
	GenesisFile string
	DBDir       string
	VM          vaultvm.Config
}

func (c *config) address() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("vaultvm", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints version and quit")
	fs.String(httpHostKey, "127.0.0.1", "Address of the HTTP server")
	fs.Uint(httpPortKey, 9650, "Port of the HTTP server")
	fs.String(logLevelKey, "info", "Log level: crit, error, warn, info or debug")
	fs.String(genesisFileKey, "", "JSON genesis applied to an empty ledger")
	fs.String(dbDirKey, "", "Directory of the leveldb ledger. The ledger is kept in memory if empty")
	fs.String(programIDKey, program.AddressString(vaultvm.DefaultProgramID), "Address of the vault program")
	fs.Uint64(lamportsPerByteYearKey, program.DefaultLamportsPerByteYear, "Rent charged per byte per year")
	fs.Float64(exemptionThresholdKey, program.DefaultExemptionThreshold, "Years of rent an account must hold to be exempt")
	fs.Int(accountCacheSizeKey, vaultvm.DefaultConfig(vaultvm.DefaultProgramID).AccountCacheSize, "Number of accounts kept in memory")
	fs.Int(maxInvokeDepthKey, vaultvm.DefaultMaxInvokeDepth, "Maximum depth of nested program invocations")

	return fs
}

// getViper returns the viper environment for the node binary. Every flag can
// also be set through a VAULTVM_ prefixed environment variable.
func getViper(args []string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("vaultvm", pflag.ContinueOnError)
	fs.AddGoFlagSet(buildFlagSet())
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	return v, nil
}

func parseConfig(v *viper.Viper) (*config, error) {
	programID, err := program.AddressFromString(v.GetString(programIDKey))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", programIDKey, err)
	}

	port := v.GetUint(httpPortKey)
	if port > 65535 {
		return nil, errBadPort
	}
	threshold := v.GetFloat64(exemptionThresholdKey)
	if threshold < 0 {
		return nil, errBadThreshold
	}
	maxInvokeDepth := v.GetInt(maxInvokeDepthKey)
	if maxInvokeDepth < 1 {
		return nil, errBadMaxInvokeDepth
	}

	vmConfig := vaultvm.DefaultConfig(programID)
	vmConfig.Rent = program.Rent{
		LamportsPerByteYear: v.GetUint64(lamportsPerByteYearKey),
		ExemptionThreshold:  threshold,
	}
	vmConfig.AccountCacheSize = v.GetInt(accountCacheSizeKey)
	vmConfig.MaxInvokeDepth = maxInvokeDepth

	return &config{
		HTTPHost:    v.GetString(httpHostKey),
		HTTPPort:    port,
		LogLevel:    v.GetString(logLevelKey),
		GenesisFile: v.GetString(genesisFileKey),
		DBDir:       v.GetString(dbDirKey),
		VM:          vmConfig,
	}, nil
}
