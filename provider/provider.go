/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/endpoints"
	"github.com/outscale/aws-query-provider/query"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"
)

var (
	ErrNoRegion           = errors.New("no region configured")
	ErrInvalidCredentials = errors.New("authentication error (invalid credentials ?)")
	ErrExpiredCredentials = errors.New("authentication error (expired credentials or clock drift ?)")

	invalidCredentialsErrorCodes = sets.New("AuthFailure", "InvalidClientTokenId", "SignatureDoesNotMatch", "IncompleteSignature", "MissingAuthenticationToken")
	expiredCredentialsErrorCodes = sets.New("RequestExpired", "ExpiredToken")
	// codes returned by a dry run with valid credentials.
	validCredentialsErrorCodes = sets.New("DryRunOperation", "UnauthorizedOperation", "RequestLimitExceeded", "Throttling")
)

// Provider builds signed methods for the services of a region.
type Provider struct {
	region   string
	creds    *credentials.Credentials
	resolver endpoints.ResolverFunc
	metadata EC2Metadata
	opts     []query.Option
}

// Option configures a Provider.
type Option func(*Provider)

// WithCredentials replaces the default credential chain.
func WithCredentials(creds *credentials.Credentials) Option {
	return func(p *Provider) {
		p.creds = creds
	}
}

// WithMetadata sets the metadata client used to find the region.
func WithMetadata(svc EC2Metadata) Option {
	return func(p *Provider) {
		p.metadata = svc
	}
}

// WithQueryOptions adds options to all methods.
func WithQueryOptions(opts ...query.Option) Option {
	return func(p *Provider) {
		p.opts = append(p.opts, opts...)
	}
}

// New builds a Provider.
func New(ctx context.Context, cfg *CloudConfig, opts ...Option) (*Provider, error) {
	if cfg == nil {
		cfg = &CloudConfig{}
	}
	p := &Provider{
		resolver: cfg.getResolver(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.creds == nil {
		p.creds = NewCredentials(cfg.profile())
	}
	region, err := p.findRegion(ctx, cfg)
	if err != nil {
		return nil, err
	}
	p.region = region
	klog.FromContext(ctx).V(3).Info("Provider configured", "region", region)
	return p, nil
}

// findRegion uses the config, AWS_REGION, the Outscale profile, then instance metadata.
func (p *Provider) findRegion(ctx context.Context, cfg *CloudConfig) (string, error) {
	logger := klog.FromContext(ctx)
	if cfg.Global.Region != "" {
		return cfg.Global.Region, nil
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region, nil
	}
	if ocfg, err := loadOscProfile(cfg.profile()); err == nil && ocfg.Region != nil && *ocfg.Region != "" {
		return *ocfg.Region, nil
	}
	if p.metadata == nil {
		svc, err := NewMetadataClient()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoRegion, err)
		}
		p.metadata = svc
	}
	md, err := FetchMetadata(p.metadata)
	if err != nil {
		logger.V(3).Error(err, "Unable to fetch metadata")
		return "", fmt.Errorf("%w: %w", ErrNoRegion, err)
	}
	return md.Region, nil
}

// Region returns the region of the provider.
func (p *Provider) Region() string {
	return p.region
}

// Endpoint resolves the endpoint of a service.
func (p *Provider) Endpoint(svc Service) (endpoints.ResolvedEndpoint, error) {
	ep, err := p.resolver(svc.Name, p.region)
	if err != nil {
		return ep, fmt.Errorf("resolve %s endpoint: %w", svc.Name, err)
	}
	if ep.SigningRegion == "" {
		ep.SigningRegion = p.region
	}
	if ep.SigningName == "" {
		ep.SigningName = svc.Name
	}
	return ep, nil
}

func (p *Provider) signer(svc Service, ep endpoints.ResolvedEndpoint) query.Signer {
	if svc.Signing == AWS3 {
		return query.NewAWS3Signer(p.creds)
	}
	return query.NewV4Signer(p.creds, ep.SigningName, ep.SigningRegion)
}

// NewMethod builds a signed method.
// Query services get the Action and Version parameters, path is ignored.
// REST services are called on <endpoint>/<version>/<path>.
func (p *Provider) NewMethod(ctx context.Context, svc Service, op, path string, params map[string]string, body []byte) (*query.Method, error) {
	ep, err := p.Endpoint(svc)
	if err != nil {
		return nil, &query.ConfigurationError{Err: err}
	}
	req := query.Request{
		Operation: op,
		Body:      body,
	}
	base := strings.TrimSuffix(ep.URL, "/")
	if svc.REST {
		req.URL = base + "/" + svc.Version + "/" + strings.TrimPrefix(path, "/")
		req.Parameters = params
	} else {
		req.URL = base + "/"
		req.Parameters = make(map[string]string, len(params)+2)
		maps.Copy(req.Parameters, params)
		req.Parameters["Action"] = op
		req.Parameters["Version"] = svc.Version
	}
	opts := append([]query.Option{query.WithSigner(p.signer(svc, ep))}, p.opts...)
	return query.New(ctx, req, opts...)
}

// Invoke builds and invokes a method.
func (p *Provider) Invoke(ctx context.Context, svc Service, op, path string, params map[string]string, body []byte) (*query.Document, error) {
	m, err := p.NewMethod(ctx, svc, op, path, params, body)
	if err != nil {
		return nil, err
	}
	return m.Invoke(ctx)
}

// CheckCredentials checks credentials with a dry run DescribeRegions call.
func (p *Provider) CheckCredentials(ctx context.Context) error {
	logger := klog.FromContext(ctx)
	logger.V(4).Info("Check credentials", "operation", "DescribeRegions")
	_, err := p.Invoke(ctx, EC2, "DescribeRegions", "", map[string]string{"DryRun": "true"}, nil)
	code := query.ErrorCode(err)
	switch {
	case err == nil || validCredentialsErrorCodes.Has(code):
		return nil
	case invalidCredentialsErrorCodes.Has(code):
		err = ErrInvalidCredentials
	case expiredCredentialsErrorCodes.Has(code):
		err = ErrExpiredCredentials
	}
	return fmt.Errorf("check credentials: %w", err)
}
