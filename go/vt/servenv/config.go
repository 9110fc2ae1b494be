/*
Copyright 2026 The Shardql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package servenv

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"google.golang.org/grpc/codes"

	"shardql.io/shardql/go/vt/vterrors"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. SHARDQL_ROUTING_TIMEOUT.
const EnvPrefix = "SHARDQL"

// Config holds the planner knobs.
type Config struct {
	// RoutingTimeout bounds the call to the placement service.
	RoutingTimeout time.Duration
	// Preference is the replica preference used when a statement names none.
	Preference string
	// LocalNode is the node id planning happens on; used by the _local preference.
	LocalNode string
	// SchemaCacheTTL is how long a built table definition stays cached for a
	// given cluster state version.
	SchemaCacheTTL time.Duration
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		RoutingTimeout: 5 * time.Second,
		SchemaCacheTTL: 10 * time.Minute,
	}
}

func registerConfigFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.String("config-file", "", "path to a yaml/json/toml config file")
	fs.Duration("routing-timeout", def.RoutingTimeout, "deadline for shard placement lookups")
	fs.String("preference", def.Preference, "default replica preference (_local, _primary, _replica, _only_node:<id>, _prefer_node:<id> or a session string)")
	fs.String("local-node", def.LocalNode, "id of the node planning runs on")
	fs.Duration("schema-cache-ttl", def.SchemaCacheTTL, "how long table definitions stay cached per cluster state version")
}

// LoadConfig resolves the Config from, by increasing priority, defaults, the
// config file, SHARDQL_* environment variables and explicitly set flags.
func LoadConfig(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("routing-timeout", def.RoutingTimeout)
	v.SetDefault("preference", def.Preference)
	v.SetDefault("local-node", def.LocalNode)
	v.SetDefault("schema-cache-ttl", def.SchemaCacheTTL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, vterrors.Wrap(err, "binding flags")
		}
	}
	if file := v.GetString("config-file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, vterrors.Wrapf(err, "reading config file %s", file)
		}
	}

	cfg := Config{
		RoutingTimeout: v.GetDuration("routing-timeout"),
		Preference:     v.GetString("preference"),
		LocalNode:      v.GetString("local-node"),
		SchemaCacheTTL: v.GetDuration("schema-cache-ttl"),
	}
	if cfg.RoutingTimeout <= 0 {
		return Config{}, vterrors.Errorf(codes.InvalidArgument, "routing-timeout must be positive, got %v", cfg.RoutingTimeout)
	}
	return cfg, nil
}
