/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// ErrEmptyDocument is returned when a body has no root element.
var ErrEmptyDocument = errors.New("no XML root element")

// Document is a parsed XML response.
type Document struct {
	doc *etree.Document
}

// ParseDocument parses an XML body.
func ParseDocument(body []byte) (*Document, error) {
	if len(body) == 0 {
		return nil, ErrEmptyDocument
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, ErrEmptyDocument
	}
	return &Document{doc: doc}, nil
}

// Root returns the root element.
func (d *Document) Root() *etree.Element {
	return d.doc.Root()
}

// GetElementsByTagName returns all elements with a local name of tag, in document order.
// The root element is included.
func (d *Document) GetElementsByTagName(tag string) []*etree.Element {
	var out []*etree.Element
	walk(d.doc.Root(), func(e *etree.Element) {
		if e.Tag == tag {
			out = append(out, e)
		}
	})
	return out
}

// FirstText returns the trimmed text of the first element named tag, or "".
func (d *Document) FirstText(tag string) string {
	elts := d.GetElementsByTagName(tag)
	if len(elts) == 0 {
		return ""
	}
	return strings.TrimSpace(elts[0].Text())
}

// WriteTo writes the document, indented.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	doc := d.doc.Copy()
	doc.Indent(2)
	return doc.WriteTo(w)
}

func walk(e *etree.Element, fn func(e *etree.Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.ChildElements() {
		walk(c, fn)
	}
}

// errorEnvelope is the <Error> part of an error response.
type errorEnvelope struct {
	Code      string
	Message   string
	RequestID string
}

// parseErrorEnvelope extracts the first <Error> element of a body.
// EC2 wraps it in <Response><Errors>, ELB/IAM/Route53 in <ErrorResponse>.
// The request id is a sibling of <Error> (or of <Errors>), spelled RequestID or RequestId.
func parseErrorEnvelope(body []byte) (*errorEnvelope, bool) {
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, false
	}
	errs := doc.GetElementsByTagName("Error")
	if len(errs) == 0 {
		return nil, false
	}
	elt := errs[0]
	env := &errorEnvelope{
		Code:    childText(elt, "Code"),
		Message: childText(elt, "Message"),
	}
	if env.Code == "" {
		return nil, false
	}
	for p := elt.Parent(); p != nil && env.RequestID == ""; p = p.Parent() {
		env.RequestID = childText(p, "RequestID")
		if env.RequestID == "" {
			env.RequestID = childText(p, "RequestId")
		}
	}
	return env, true
}

func childText(e *etree.Element, tag string) string {
	c := e.SelectElement(tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}
