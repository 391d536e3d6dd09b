/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package provider

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/outscale/aws-query-provider/utils"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"
)

// EC2Metadata is an abstraction over the AWS metadata service.
type EC2Metadata interface {
	Available() bool
	// Query the EC2 metadata service (used to discover instance-id etc)
	GetMetadata(path string) (string, error)
}

// Metadata is the instance metadata needed to locate the region.
type Metadata struct {
	InstanceID       string
	Region           string
	AvailabilityZone string
}

// NewMetadataClient builds a client for the instance metadata service.
func NewMetadataClient() (EC2Metadata, error) {
	sess, err := session.NewSession(&aws.Config{
		MaxRetries: ptr.To(1),
	})
	if err != nil {
		return nil, fmt.Errorf("metadata session: %w", err)
	}
	addHandlers(&sess.Handlers)
	return ec2metadata.New(sess), nil
}

// FetchMetadata queries the metadata server.
func FetchMetadata(svc EC2Metadata) (Metadata, error) {
	if !svc.Available() {
		return Metadata{}, errors.New("EC2 instance metadata is not available")
	}

	instanceID, err := svc.GetMetadata("instance-id")
	if err != nil || instanceID == "" {
		return Metadata{}, errors.New("could not get valid VM instance ID")
	}

	availabilityZone, err := svc.GetMetadata("placement/availability-zone")
	if err != nil || len(availabilityZone) < 2 {
		return Metadata{}, errors.New("could not get valid VM availability zone")
	}
	region := availabilityZone[0 : len(availabilityZone)-1]

	return Metadata{
		InstanceID:       instanceID,
		Region:           region,
		AvailabilityZone: availabilityZone,
	}, nil
}

func addHandlers(h *request.Handlers) {
	h.Build.PushFrontNamed(request.NamedHandler{
		Name: "aws-query-provider/user-agent",
		Fn:   request.MakeAddToUserAgentHandler("aws-query-provider", utils.GetVersion()),
	})
	h.CompleteAttempt.PushFrontNamed(request.NamedHandler{
		Name: "aws-query-provider/metadata-log-response",
		Fn:   logMetadataResponse,
	})
}

func logMetadataResponse(req *request.Request) {
	name := "?"
	if req.Operation != nil {
		name = req.Operation.Name
	}
	logger := klog.FromContext(req.Context())
	switch {
	case req.Error != nil:
		logger.V(3).Error(req.Error, "Metadata error", "metadata", name)
	case req.HTTPResponse != nil:
		logger.V(5).Info("Metadata response", "metadata", name, "http_status", req.HTTPResponse.Status)
	}
}
