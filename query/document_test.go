/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package query_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/outscale/aws-query-provider/query"
)

const listZones = `<?xml version="1.0" encoding="UTF-8"?>
<ListHostedZonesResponse xmlns="https://route53.amazonaws.com/doc/2013-04-01/">
  <HostedZones>
    <HostedZone><Id>/hostedzone/Z1</Id><Name>example.com.</Name></HostedZone>
    <HostedZone><Id>/hostedzone/Z2</Id><Name>example.org.</Name></HostedZone>
  </HostedZones>
  <IsTruncated>false</IsTruncated>
</ListHostedZonesResponse>`

var _ = Describe("Document", func() {
	Describe("#ParseDocument", func() {
		It("should reject empty bodies", func() {
			_, err := query.ParseDocument(nil)
			Expect(err).To(MatchError(query.ErrEmptyDocument))
		})

		It("should reject bodies without a root element", func() {
			_, err := query.ParseDocument([]byte("Access Denied"))
			Expect(err).To(HaveOccurred())
		})

		It("should parse namespaced documents", func() {
			doc, err := query.ParseDocument([]byte(listZones))
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Root().Tag).To(Equal("ListHostedZonesResponse"))
		})
	})

	Describe("#GetElementsByTagName", func() {
		var doc *query.Document

		BeforeEach(func() {
			var err error
			doc, err = query.ParseDocument([]byte(listZones))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return elements in document order", func() {
			ids := doc.GetElementsByTagName("Id")
			Expect(ids).To(HaveLen(2))
			Expect(ids[0].Text()).To(Equal("/hostedzone/Z1"))
			Expect(ids[1].Text()).To(Equal("/hostedzone/Z2"))
		})

		It("should include the root element", func() {
			Expect(doc.GetElementsByTagName("ListHostedZonesResponse")).To(HaveLen(1))
		})

		It("should return nothing for unknown tags", func() {
			Expect(doc.GetElementsByTagName("Foo")).To(BeEmpty())
			Expect(doc.FirstText("Foo")).To(BeEmpty())
		})

		It("should return the first text", func() {
			Expect(doc.FirstText("Name")).To(Equal("example.com."))
			Expect(doc.FirstText("IsTruncated")).To(Equal("false"))
		})
	})

	Describe("#WriteTo", func() {
		It("should write an indented document", func() {
			doc, err := query.ParseDocument([]byte(`<Foo><Bar>1</Bar></Foo>`))
			Expect(err).NotTo(HaveOccurred())
			var buf bytes.Buffer
			_, err = doc.WriteTo(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(HavePrefix("<Foo>\n  <Bar>1</Bar>\n</Foo>"))
		})
	})
})
