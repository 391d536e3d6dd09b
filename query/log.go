/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/outscale/aws-query-provider/utils"
	"k8s.io/apimachinery/pkg/util/sets"
)

const maxResponseLength = 500

// headers that carry credentials or signatures.
var sensitiveHeaders = sets.New(
	"authorization",
	"x-amzn-authorization",
	"x-amz-security-token",
)

// flattenSpace merges all unicode spaces (\n, \r, \t, ...) into single ascii spaces.
func flattenSpace(buf []byte) string {
	var prev rune
	return strings.TrimSpace(string(utils.Map([]rune(string(buf)), func(r rune) (rune, bool) {
		defer func() {
			prev = r
		}()
		switch {
		case unicode.IsSpace(r) && unicode.IsSpace(prev):
			return ' ', false
		case unicode.IsSpace(r):
			return ' ', true
		default:
			return r, true
		}
	})))
}

// flatten is flattenSpace, with all " removed, for log lines.
func flatten(buf []byte) string {
	return strings.ReplaceAll(flattenSpace(buf), `"`, "")
}

// truncate keeps the first and last maxResponseLength/2 runes of a string.
func truncate(str string) string {
	rs := []rune(str)
	if len(rs) > maxResponseLength {
		return string(rs[:maxResponseLength/2]) + " [truncated] " + string(rs[len(rs)-maxResponseLength/2:])
	}
	return str
}

// snippet is the body as logged.
func snippet(body []byte) string {
	return truncate(flatten(body))
}

// errorSnippet is the body as attached to errors.
func errorSnippet(body []byte) string {
	return truncate(flattenSpace(body))
}

// formatHeaders converts headers to a sorted string, hiding sensitive values.
func formatHeaders(headers http.Header, separator string) string {
	out := make([]string, 0, len(headers))
	for header, data := range headers {
		if sensitiveHeaders.Has(strings.ToLower(header)) {
			out = append(out, header+": ***")
		} else {
			out = append(out, header+": "+strings.Join(data, " "))
		}
	}
	sort.Strings(out)
	return strings.Join(out, separator)
}

// formatParameters converts parameters to a sorted key=value string.
func formatParameters(params map[string]string) string {
	return "{" + strings.Join(utils.ToList(params, func(k, v string) string {
		return fmt.Sprintf("%s:%s", k, v)
	}), ",") + "}"
}
