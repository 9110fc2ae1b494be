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

package balancer

// pickOptions configure an Order call. pickOptions are set by the PickOption
// values passed to Order.
type pickOptions struct {
	localNode string
}

// PickOption configures how replicas are ordered.
type PickOption interface {
	apply(*pickOptions)
}

// funcPickOption wraps a function that modifies pickOptions into an
// implementation of the PickOption interface.
type funcPickOption struct {
	f func(*pickOptions)
}

func (fpo *funcPickOption) apply(po *pickOptions) {
	fpo.f(po)
}

func newFuncPickOption(f func(*pickOptions)) *funcPickOption {
	return &funcPickOption{
		f: f,
	}
}

// WithLocalNode tells the balancer which node it is running on, for the
// _local preference.
func WithLocalNode(nodeID string) PickOption {
	return newFuncPickOption(func(o *pickOptions) {
		o.localNode = nodeID
	})
}

// getOptions applies the given options to a new pickOptions struct
// and returns it.
func getOptions(opts []PickOption) *pickOptions {
	options := &pickOptions{}
	for _, opt := range opts {
		opt.apply(options)
	}

	return options
}
