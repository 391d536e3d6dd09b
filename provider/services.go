/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package provider

import (
	"strings"

	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/elb"
	"github.com/aws/aws-sdk-go/service/iam"
	"github.com/aws/aws-sdk-go/service/route53"
)

// SigningMethod is the signature scheme of a service.
type SigningMethod string

const (
	SigV4 SigningMethod = "v4"
	AWS3  SigningMethod = "aws3-https"
)

// Service describes an AWS query API.
type Service struct {
	// Name is the endpoint id of the service.
	Name string
	// Version is the API version, sent as the Version parameter or as the first path segment.
	Version string
	Signing SigningMethod
	// REST services take the operation from the verb and path, query services from the Action parameter.
	REST bool
}

var (
	EC2 = Service{Name: ec2.EndpointsID, Version: "2016-11-15", Signing: SigV4}
	ELB = Service{Name: elb.EndpointsID, Version: "2012-06-01", Signing: SigV4}
	IAM = Service{Name: iam.EndpointsID, Version: "2010-05-08", Signing: SigV4}
	// Route53 signs with AWS3-HTTPS.
	Route53 = Service{Name: route53.EndpointsID, Version: "2013-04-01", Signing: AWS3, REST: true}
)

var services = []Service{EC2, ELB, IAM, Route53}

// Services returns all known services.
func Services() []Service {
	return append([]Service(nil), services...)
}

// LookupService returns the service named name (e.g. ec2, route53).
func LookupService(name string) (Service, bool) {
	name = strings.ToLower(name)
	for _, svc := range services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

func (s Service) String() string {
	return s.Name + "/" + s.Version
}
