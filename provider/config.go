/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package provider

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go/aws/endpoints"
	"gopkg.in/gcfg.v1"
	"k8s.io/apimachinery/pkg/util/sets"
)

// CloudConfig is the provider configuration file, in gcfg format.
//
//	[Global]
//	Region = eu-west-1
//	Profile = default
//
//	[ServiceOverride "1"]
//	Service = ec2
//	Region = eu-west-1
//	URL = https://ec2.example.internal
//	SigningRegion = eu-west-1
type CloudConfig struct {
	Global struct {
		// Region is the default region. AWS_REGION, then instance metadata, are used if empty.
		Region string
		// Profile is the profile looked up in credential files. "default" if empty.
		Profile string
	}
	// ServiceOverride overrides endpoints, per service and region.
	ServiceOverride map[string]*struct {
		Service       string
		Region        string
		URL           string
		SigningRegion string
		SigningName   string
	}
}

// ReadConfig reads a CloudConfig. A nil reader returns an empty config.
func ReadConfig(config io.Reader) (*CloudConfig, error) {
	var cfg CloudConfig
	if config != nil {
		if err := gcfg.ReadInto(&cfg, config); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := cfg.validateOverrides(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadConfigFile reads a CloudConfig from a file. An empty path returns an empty config.
func ReadConfigFile(path string) (*CloudConfig, error) {
	if path == "" {
		return ReadConfig(nil)
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return ReadConfig(f)
}

func (cfg *CloudConfig) profile() string {
	if cfg.Global.Profile == "" {
		return "default"
	}
	return cfg.Global.Profile
}

func (cfg *CloudConfig) validateOverrides() error {
	seen := sets.New[string]()
	for name, o := range cfg.ServiceOverride {
		switch {
		case o.Service == "":
			return fmt.Errorf("service override %q: service name is missing", name)
		case o.Region == "":
			return fmt.Errorf("service override %q: region is missing", name)
		case o.URL == "":
			return fmt.Errorf("service override %q: URL is missing", name)
		case o.SigningRegion == "":
			return fmt.Errorf("service override %q: signing region is missing", name)
		}
		key := o.Service + "_" + o.Region
		if seen.Has(key) {
			return fmt.Errorf("service override %q: duplicate override for service %s in region %s", name, o.Service, o.Region)
		}
		seen.Insert(key)
	}
	return nil
}

var errNoOverride = errors.New("no override")

func (cfg *CloudConfig) override(service, region string) (endpoints.ResolvedEndpoint, error) {
	for _, o := range cfg.ServiceOverride {
		if o.Service == service && o.Region == region {
			return endpoints.ResolvedEndpoint{
				URL:           o.URL,
				SigningRegion: o.SigningRegion,
				SigningName:   o.SigningName,
			}, nil
		}
	}
	return endpoints.ResolvedEndpoint{}, errNoOverride
}

// getResolver returns a resolver using overrides first, then the aws-sdk-go endpoint tables.
func (cfg *CloudConfig) getResolver() endpoints.ResolverFunc {
	return func(service, region string, optFns ...func(*endpoints.Options)) (endpoints.ResolvedEndpoint, error) {
		if ep, err := cfg.override(service, region); err == nil {
			return ep, nil
		}
		return endpoints.DefaultResolver().EndpointFor(service, region, optFns...)
	}
}
