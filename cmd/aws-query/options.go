/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/outscale/aws-query-provider/provider"
	"github.com/outscale/aws-query-provider/query"
	"github.com/spf13/pflag"
	cliflag "k8s.io/component-base/cli/flag"
)

// Options are the flags shared by all commands.
type Options struct {
	CloudConfig string
	Region      string
	Profile     string
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.CloudConfig, "cloud-config", "", "path to the cloud config file")
	fs.StringVar(&o.Region, "region", "", "region, overrides the cloud config")
	fs.StringVar(&o.Profile, "profile", "", "credential profile, overrides the cloud config")
	fs.IntVar(&o.MaxAttempts, "max-attempts", query.DefaultMaxAttempts, "maximum number of attempts on 500/503 responses")
	fs.DurationVar(&o.Backoff, "backoff", query.DefaultBackoff, "delay between two attempts")
	fs.DurationVar(&o.Timeout, "timeout", 90*time.Second, "timeout of a single HTTP request")
}

// CloudConfigWithOverrides reads the cloud config and applies flag overrides.
func (o *Options) CloudConfigWithOverrides() (*provider.CloudConfig, error) {
	cfg, err := provider.ReadConfigFile(o.CloudConfig)
	if err != nil {
		return nil, err
	}
	if o.Region != "" {
		cfg.Global.Region = o.Region
	}
	if o.Profile != "" {
		cfg.Global.Profile = o.Profile
	}
	return cfg, nil
}

// QueryOptions returns the options of all methods.
func (o *Options) QueryOptions() []query.Option {
	return []query.Option{
		query.WithRetry(o.MaxAttempts, o.Backoff),
		query.WithHTTPClient(query.NewHTTPClient(30*time.Second, o.Timeout)),
	}
}

// InvokeOptions are the flags of the invoke command.
type InvokeOptions struct {
	Params         map[string]string
	BodyFile       string
	IgnoreNotFound bool
}

func (o *InvokeOptions) AddFlags(fs *pflag.FlagSet) {
	fs.Var(cliflag.NewMapStringString(&o.Params), "param", "Parameters to add to the query string. It is a comma separated list of key value pairs like '<key1>=<value1>,<key2>=<value2>'")
	fs.StringVar(&o.BodyFile, "body-file", "", "file containing the XML body of POST requests")
	fs.BoolVar(&o.IgnoreNotFound, "ignore-not-found", false, "exit successfully when the resource is not found")
}

func (o *InvokeOptions) Body() ([]byte, error) {
	if o.BodyFile == "" {
		return nil, nil
	}
	body, err := os.ReadFile(o.BodyFile)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
