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

// Package servenv wires flags and configuration for the shardql binaries.
// Packages register the flags they own with OnParseFor and the command
// collects them into its FlagSet before parsing.
package servenv

import (
	"sync"

	"github.com/spf13/pflag"

	"shardql.io/shardql/go/vt/log"
)

var (
	mu           sync.Mutex
	onParseHooks = map[string][]func(fs *pflag.FlagSet){}
)

// OnParseFor registers a callback that installs flags for the named command.
func OnParseFor(cmd string, f func(fs *pflag.FlagSet)) {
	mu.Lock()
	defer mu.Unlock()
	onParseHooks[cmd] = append(onParseHooks[cmd], f)
}

// OnParse registers flags for every command.
func OnParse(f func(fs *pflag.FlagSet)) {
	OnParseFor("", f)
}

// RegisterFlagsFor installs the common flags, the config flags and every
// flag registered for cmd on fs.
func RegisterFlagsFor(cmd string, fs *pflag.FlagSet) {
	log.RegisterFlags(fs)
	registerConfigFlags(fs)

	mu.Lock()
	hooks := append(append([]func(*pflag.FlagSet){}, onParseHooks[""]...), onParseHooks[cmd]...)
	mu.Unlock()
	for _, hook := range hooks {
		hook(fs)
	}
}
