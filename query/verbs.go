/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query

import (
	"maps"
	"net/http"
)

// Route53 operations with a fixed HTTP verb.
const (
	ChangeResourceRecordSets = "ChangeResourceRecordSets"
	CreateHostedZone         = "CreateHostedZone"
	DeleteHostedZone         = "DeleteHostedZone"
	GetChange                = "GetChange"
	GetHostedZone            = "GetHostedZone"
	ListHostedZones          = "ListHostedZones"
	ListResourceRecordSets   = "ListResourceRecordSets"
)

var verbs = map[string]string{
	ChangeResourceRecordSets: http.MethodPost,
	CreateHostedZone:         http.MethodPost,
	DeleteHostedZone:         http.MethodDelete,
	GetChange:                http.MethodGet,
	GetHostedZone:            http.MethodGet,
	ListHostedZones:          http.MethodGet,
	ListResourceRecordSets:   http.MethodGet,
}

// ResolveVerb returns the HTTP verb used to send an operation.
// Operations missing from the table are sent with POST.
func ResolveVerb(operation string) string {
	if verb, found := verbs[operation]; found {
		return verb
	}
	return http.MethodPost
}

// Verbs returns a copy of the operation to verb table.
func Verbs() map[string]string {
	return maps.Clone(verbs)
}
