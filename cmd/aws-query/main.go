/*
SPDX-FileCopyrightText: 2025 Outscale SAS <opensource@outscale.com>

SPDX-License-Identifier: BSD-3-Clause
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/component-base/logs"
	logsv1 "k8s.io/component-base/logs/api/v1"
	_ "k8s.io/component-base/logs/json/register"
	"k8s.io/klog/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		klog.ErrorS(err, "Command failed")
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func newRootCommand() *cobra.Command {
	logOptions := logs.NewOptions()
	opts := &Options{}
	cmd := &cobra.Command{
		Use:           "aws-query",
		Short:         "Signed calls to the AWS query APIs (EC2, ELB, IAM, Route53)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logsv1.ValidateAndApply(logOptions, nil); err != nil {
				return fmt.Errorf("logging: %w", err)
			}
			return nil
		},
	}
	fs := cmd.PersistentFlags()
	logsv1.AddFlags(logOptions, fs)
	opts.AddFlags(fs)

	cmd.AddCommand(
		newInvokeCommand(opts),
		newVerbCommand(),
		newCheckCredentialsCommand(opts),
		newVersionCommand(),
	)
	return cmd
}
