package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirepush/internal/auth"
	"github.com/vovakirdan/wirepush/internal/core"
)

func newSignCmd() *cobra.Command {
	var secret, connID, channel, data string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the auth key for a private or presence subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			typ, err := core.Classify(channel)
			if err != nil {
				return err
			}
			if !typ.Authenticated() {
				return fmt.Errorf("%s is a public channel and needs no auth key", channel)
			}
			fmt.Fprintln(cmd.OutOrStdout(), core.Sign(secret, connID, channel, typ, data))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&secret, "secret", "", "application secret")
	flags.StringVar(&connID, "conn", "", "connection id the key is issued for")
	flags.StringVar(&channel, "channel", "", "channel name")
	flags.StringVar(&data, "data", "", "presence payload exactly as the client will send it")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("conn")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var appID, secret string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the publish endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if ttl <= 0 {
				return errors.New("ttl must be positive")
			}
			token, err := auth.GenerateToken(appID, secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&appID, "app", "", "application key")
	flags.StringVar(&secret, "secret", "", "application secret")
	flags.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}
