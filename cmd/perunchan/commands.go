// Copyright 2025 PolyCrypt GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"perun.network/perun-statechannel/channel"
	"perun.network/perun-statechannel/wallet"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			acc, err := wallet.NewRandomAccount()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "address: %s\nseed: %s\n", acc.Address(), acc.Seed())
			return nil
		},
	}
}

func openCmd(a *app) *cobra.Command {
	var (
		participants []string
		balances     []string
	)
	cmd := &cobra.Command{
		Use:     "open",
		Short:   "Open a channel.",
		Example: `  perunchan open --participant GA... --participant GB... --balance 100 --balance 50`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parts := make([]wallet.Address, len(participants))
			for i, p := range participants {
				addr, err := wallet.ParseAddress(p)
				if err != nil {
					return err
				}
				parts[i] = addr
			}
			bals, err := parseBalances(balances)
			if err != nil {
				return err
			}
			adj, err := a.adjudicator()
			if err != nil {
				return err
			}
			id, err := adj.Open(cmd.Context(), parts, bals)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "opened channel %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&participants, "participant", nil, "participant account, repeated in channel order")
	cmd.Flags().StringSliceVar(&balances, "balance", nil, "initial balance per participant")
	return cmd
}

func updateCmd(a *app) *cobra.Command {
	var (
		as       string
		nonce    uint64
		balances []string
	)
	cmd := &cobra.Command{
		Use:   "update <channel-id>",
		Short: "Record a newer off-chain state.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			caller, err := wallet.ParseAddress(as)
			if err != nil {
				return err
			}
			bals, err := parseBalances(balances)
			if err != nil {
				return err
			}
			adj, err := a.adjudicator()
			if err != nil {
				return err
			}
			if err := adj.UpdateState(cmd.Context(), caller, id, bals, nonce); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "channel %d at nonce %d\n", id, nonce)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "submitting participant")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "state nonce")
	cmd.Flags().StringSliceVar(&balances, "balance", nil, "balance per participant")
	cobra.CheckErr(cmd.MarkFlagRequired("as"))
	cobra.CheckErr(cmd.MarkFlagRequired("nonce"))
	return cmd
}

func disputeCmd(a *app) *cobra.Command {
	var (
		as    string
		nonce uint64
	)
	cmd := &cobra.Command{
		Use:   "dispute <channel-id>",
		Short: "Contest a state of a channel.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			caller, err := wallet.ParseAddress(as)
			if err != nil {
				return err
			}
			adj, err := a.adjudicator()
			if err != nil {
				return err
			}
			if err := adj.InitiateDispute(cmd.Context(), caller, id, nonce); err != nil {
				return err
			}
			ch, err := adj.Channel(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "channel %d disputed until %s\n", id, ch.DisputeDeadline.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "challenging participant")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "contested nonce")
	cobra.CheckErr(cmd.MarkFlagRequired("as"))
	cobra.CheckErr(cmd.MarkFlagRequired("nonce"))
	return cmd
}

func resolveCmd(a *app) *cobra.Command {
	var balances []string
	cmd := &cobra.Command{
		Use:   "resolve <channel-id>",
		Short: "Close a disputed channel after its dispute window.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			adj, err := a.adjudicator()
			if err != nil {
				return err
			}
			var bals channel.Balances
			if len(balances) == 0 {
				ch, err := adj.Channel(cmd.Context(), id)
				if err != nil {
					return err
				}
				bals = ch.Balances
			} else if bals, err = parseBalances(balances); err != nil {
				return err
			}
			if err := adj.ResolveDispute(cmd.Context(), id, bals); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "channel %d closed\n", id)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&balances, "balance", nil, "final balance per participant, defaults to the balances on record")
	return cmd
}

func closeCmd(a *app) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "close <channel-id>",
		Short: "Cooperatively close an open channel.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			caller, err := wallet.ParseAddress(as)
			if err != nil {
				return err
			}
			adj, err := a.adjudicator()
			if err != nil {
				return err
			}
			if err := adj.Close(cmd.Context(), caller, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "channel %d closed\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "closing participant")
	cobra.CheckErr(cmd.MarkFlagRequired("as"))
	return cmd
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <channel-id>",
		Short: "Print a channel.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			adj, err := a.adjudicator()
			if err != nil {
				return err
			}
			ch, err := adj.Channel(cmd.Context(), id)
			if err != nil {
				return err
			}
			printChannel(cmd.OutOrStdout(), ch)
			if ch.Status != channel.StatusDisputed {
				return nil
			}
			d, err := adj.Dispute(cmd.Context(), id)
			if errors.Is(err, channel.ErrNoActiveDispute) {
				return nil
			} else if err != nil {
				return err
			}
			printDispute(cmd.OutOrStdout(), ch, d)
			return nil
		},
	}
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <account>",
		Short: "List the channels of an account.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := wallet.ParseAddress(args[0])
			if err != nil {
				return err
			}
			adj, err := a.adjudicator()
			if err != nil {
				return err
			}
			ids, err := adj.ParticipantChannels(cmd.Context(), acc)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func printChannel(w io.Writer, ch channel.Channel) {
	fmt.Fprintf(w, "channel: %d\nstatus: %v\nnonce: %d\n", ch.ID, ch.Status, ch.Nonce)
	for i, p := range ch.Participants {
		fmt.Fprintf(w, "participant %d: %s %v\n", i, p, ch.Balances[i])
	}
}

func printDispute(w io.Writer, ch channel.Channel, d channel.Dispute) {
	fmt.Fprintf(w, "challenger: %s\ncontested nonce: %d\ndisputed at: %s\ndeadline: %s\n",
		d.Challenger, d.Nonce, d.DisputedAt.Format(time.RFC3339), ch.DisputeDeadline.Format(time.RFC3339))
}

func parseID(s string) (channel.ID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid channel id %q: %w", s, err)
	}
	return channel.ID(id), nil
}

func parseBalances(ss []string) (channel.Balances, error) {
	bals := make(channel.Balances, len(ss))
	for i, s := range ss {
		bal, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an integer", channel.ErrInvalidBalance, s)
		}
		bals[i] = bal
	}
	return bals, nil
}
