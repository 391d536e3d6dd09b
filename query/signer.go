/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
)

const (
	// HeaderAmzDate is the date header covered by the AWS3-HTTPS signature.
	HeaderAmzDate = "X-Amz-Date"
	// HeaderAmznAuthorization carries the AWS3-HTTPS signature.
	HeaderAmznAuthorization = "X-Amzn-Authorization"
	// HeaderSecurityToken carries the session token of temporary credentials.
	HeaderSecurityToken = "X-Amz-Security-Token"
)

// ErrNoCredentials is returned when the credential chain yields no access key.
var ErrNoCredentials = errors.New("no access key available")

// Signer signs a request in place. It is called once per Method, at construction.
type Signer interface {
	Sign(req *http.Request, body []byte, signTime time.Time) error
}

// Timestamp formats a signing time, in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC1123)
}

// AWS3Signer signs requests with the AWS3-HTTPS scheme used by Route53.
type AWS3Signer struct {
	creds *credentials.Credentials
}

// NewAWS3Signer builds an AWS3Signer.
func NewAWS3Signer(creds *credentials.Credentials) *AWS3Signer {
	return &AWS3Signer{creds: creds}
}

func (s *AWS3Signer) Sign(req *http.Request, _ []byte, signTime time.Time) error {
	if s.creds == nil {
		return ErrNoCredentials
	}
	v, err := s.creds.GetWithContext(req.Context())
	if err != nil {
		return fmt.Errorf("get credentials: %w", err)
	}
	if v.AccessKeyID == "" || v.SecretAccessKey == "" {
		return ErrNoCredentials
	}
	ts := Timestamp(signTime)
	req.Header.Set(HeaderAmzDate, ts)
	req.Header.Set(HeaderAmznAuthorization, fmt.Sprintf("AWS3-HTTPS AWSAccessKeyId=%s,Algorithm=HmacSHA256,Signature=%s",
		v.AccessKeyID, sign(v.SecretAccessKey, ts)))
	if v.SessionToken != "" {
		req.Header.Set(HeaderSecurityToken, v.SessionToken)
	}
	return nil
}

func sign(secret, ts string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// V4Signer signs requests with Signature Version 4, used by the EC2, ELB and IAM query APIs.
type V4Signer struct {
	creds   *credentials.Credentials
	signer  *v4.Signer
	service string
	region  string
}

// NewV4Signer builds a V4Signer for a signing service name and region.
func NewV4Signer(creds *credentials.Credentials, service, region string) *V4Signer {
	return &V4Signer{
		creds:   creds,
		signer:  v4.NewSigner(creds),
		service: service,
		region:  region,
	}
}

func (s *V4Signer) Sign(req *http.Request, body []byte, signTime time.Time) error {
	if s.creds == nil {
		return ErrNoCredentials
	}
	v, err := s.creds.GetWithContext(req.Context())
	if err != nil {
		return fmt.Errorf("get credentials: %w", err)
	}
	if v.AccessKeyID == "" {
		return ErrNoCredentials
	}
	_, err = s.signer.Sign(req, bytes.NewReader(body), s.service, s.region, signTime)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	return nil
}
