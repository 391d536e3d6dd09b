/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package provider

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/aws/aws-sdk-go/aws/credentials"
	osc "github.com/outscale/osc-sdk-go/v2"
)

// OscProfileProviderName is the ProviderName of credentials read from Outscale profiles.
const OscProfileProviderName = "OscProfileProvider"

// ErrOscProfileNotSet is returned when neither OSC_ACCESS_KEY/OSC_SECRET_KEY nor a profile file are available.
var ErrOscProfileNotSet = errors.New("osc: access key and secret key not found in environment or profile file")

// OscProfileProvider retrieves credentials from OSC_ACCESS_KEY/OSC_SECRET_KEY, or from ~/.osc/config.json.
type OscProfileProvider struct {
	// Profile is used when OSC_PROFILE is not set. "default" if empty.
	Profile string

	retrieved bool
}

var _ credentials.Provider = (*OscProfileProvider)(nil)

// Retrieve loads the profile.
func (p *OscProfileProvider) Retrieve() (credentials.Value, error) {
	p.retrieved = false
	cfg, err := loadOscProfile(p.Profile)
	if err != nil {
		return credentials.Value{ProviderName: OscProfileProviderName}, err
	}
	if cfg.AccessKey == nil || cfg.SecretKey == nil || *cfg.AccessKey == "" || *cfg.SecretKey == "" {
		return credentials.Value{ProviderName: OscProfileProviderName}, ErrOscProfileNotSet
	}
	p.retrieved = true
	return credentials.Value{
		AccessKeyID:     *cfg.AccessKey,
		SecretAccessKey: *cfg.SecretKey,
		ProviderName:    OscProfileProviderName,
	}, nil
}

// IsExpired returns true until credentials have been retrieved.
func (p *OscProfileProvider) IsExpired() bool {
	return !p.retrieved
}

// NewCredentials builds the credential chain: environment, shared credentials file, Outscale profile.
func NewCredentials(profile string) *credentials.Credentials {
	return credentials.NewCredentials(&credentials.ChainProvider{
		VerboseErrors: true,
		Providers: []credentials.Provider{
			&credentials.EnvProvider{},
			&credentials.SharedCredentialsProvider{Profile: profile},
			&OscProfileProvider{Profile: profile},
		},
	})
}

// loadOscProfile loads a config, either from env or from .osc/config.json.
func loadOscProfile(profile string) (*osc.ConfigEnv, error) {
	configEnv := osc.NewConfigEnv()
	if configEnv.AccessKey != nil || configEnv.SecretKey != nil {
		return configEnv, nil
	}
	fcfg, err := osc.LoadDefaultConfigFile()
	if err != nil {
		return nil, fmt.Errorf("osc: %w", err)
	}
	if configEnv.ProfileName != nil && *configEnv.ProfileName != "" {
		profile = *configEnv.ProfileName
	}
	if profile == "" {
		profile = "default"
	}
	return configEnvFromConfigFile(fcfg, profile)
}

func configEnvFromConfigFile(cfg *osc.ConfigFile, profile string) (*osc.ConfigEnv, error) {
	v := reflect.Indirect(reflect.ValueOf(cfg)).Field(0)
	// the profile map is not exported by the SDK.
	fcfg := reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem().Interface().(map[string]osc.Profile) //nolint:gosec
	pcfg, found := fcfg[profile]
	if !found {
		return nil, fmt.Errorf("osc: profile %q not found", profile)
	}
	ecfg := &osc.ConfigEnv{}
	if pcfg.AccessKey != "" {
		ecfg.AccessKey = &pcfg.AccessKey
	}
	if pcfg.SecretKey != "" {
		ecfg.SecretKey = &pcfg.SecretKey
	}
	if pcfg.Region != "" {
		ecfg.Region = &pcfg.Region
	}
	return ecfg, nil
}
