package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/justifica/datacache/internal/resources"
)

var adminID int

var approveCmd = &cobra.Command{
	Use:   "approve ID",
	Short: "Approve a justification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReview(cmd, args[0], resources.DecisionApproved)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject ID",
	Short: "Reject a justification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReview(cmd, args[0], resources.DecisionRejected)
	},
}

func init() {
	for _, c := range []*cobra.Command{approveCmd, rejectCmd} {
		c.Flags().IntVar(&adminID, "admin", 0, "reviewer ID (defaults to admin_id from the config)")
		rootCmd.AddCommand(c)
	}
}

func runReview(cmd *cobra.Command, arg, decision string) error {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid justification ID %q", arg)
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	reviewer := s.cfg.AdminID
	if cmd.Flags().Changed("admin") {
		reviewer = adminID
	}
	if err := s.set.Review(cmd.Context(), id, reviewer, decision); err != nil {
		return err
	}

	st := s.set.Dashboard.State()
	fmt.Fprintf(cmd.OutOrStdout(), "Justification %d: %s\n", id, decision)
	if st.HasData {
		fmt.Fprintf(cmd.OutOrStdout(), "Pending: %d\n", st.Data.Stats.Pending)
	}
	return nil
}
