/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/outscale/aws-query-provider/provider"
	"github.com/outscale/aws-query-provider/query"
	"github.com/outscale/aws-query-provider/utils"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newProvider(ctx context.Context, opts *Options) (*provider.Provider, error) {
	cfg, err := opts.CloudConfigWithOverrides()
	if err != nil {
		return nil, err
	}
	return provider.New(ctx, cfg, provider.WithQueryOptions(opts.QueryOptions()...))
}

func serviceNames() string {
	return strings.Join(utils.Map(provider.Services(), func(svc provider.Service) (string, bool) {
		return svc.Name, true
	}), ", ")
}

func newInvokeCommand(opts *Options) *cobra.Command {
	iopts := &InvokeOptions{}
	cmd := &cobra.Command{
		Use:   "invoke SERVICE OPERATION [PATH]",
		Short: "Invoke an operation and print the XML response",
		Long:  "Invoke an operation and print the XML response.\nServices: " + serviceNames() + ".\nPATH is only used by REST services (route53), e.g. hostedzone/Z1.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, found := provider.LookupService(args[0])
			if !found {
				return fmt.Errorf("unknown service %q, expected one of %s", args[0], serviceNames())
			}
			var path string
			if len(args) == 3 {
				path = args[2]
			}
			body, err := iopts.Body()
			if err != nil {
				return err
			}
			p, err := newProvider(ctx, opts)
			if err != nil {
				return err
			}
			m, err := p.NewMethod(ctx, svc, args[1], path, iopts.Params, body)
			if err != nil {
				return err
			}
			doc, found, err := m.Lookup(ctx)
			switch {
			case err != nil:
				return err
			case !found && iopts.IgnoreNotFound:
				klog.FromContext(ctx).Info("Resource not found", "operation", args[1])
				return nil
			case !found:
				return fmt.Errorf("%s: resource not found", args[1])
			}
			_, err = doc.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	iopts.AddFlags(cmd.Flags())
	return cmd
}

func newVerbCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verb [OPERATION]",
		Short: "Print the HTTP verb of an operation, or the verb table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				_, err := fmt.Fprintln(out, query.ResolveVerb(args[0]))
				return err
			}
			for _, line := range utils.ToList(query.Verbs(), func(op, verb string) string {
				return op + "\t" + verb
			}) {
				if _, err := fmt.Fprintln(out, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newCheckCredentialsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check-credentials",
		Short: "Check credentials with a dry run EC2 call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, err := newProvider(ctx, opts)
			if err != nil {
				return err
			}
			if err := p.CheckCredentials(ctx); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "credentials are valid in %s\n", p.Region())
			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), utils.GetVersion())
			return err
		},
	}
}
