package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gab-cat/cold-start-sub000/internal/agentclient"
)

func newChatCmd() *cobra.Command {
	var userID string
	var at string

	cmd := &cobra.Command{
		Use:   "chat MESSAGE",
		Short: "Send one message to the agent and print its reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := time.Now().UTC()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				ts = parsed
			}
			reply, err := newAPIClient().SendMessage(cmd.Context(), userID, args[0], ts)
			if err != nil {
				return err
			}
			if debug {
				data, err := json.Marshal(reply)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), data)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n(actions: %d, success: %t)\n", reply.ResponseText, reply.ActionsExecutedCount, reply.Success)
			return err
		},
	}
	cmd.Flags().StringVarP(&userID, "user-id", "u", "", "User ID (required)")
	cmd.Flags().StringVar(&at, "at", "", "Client timestamp (RFC3339); defaults to now")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{Use: "profile", Short: "Profile operations"}

	var userID, name, tz, telegram string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := agentclient.ProfileRequest{UserID: userID, DisplayName: name}
			if tz != "" {
				req.Preferences = map[string]string{"timezone": tz}
			}
			if telegram != "" {
				req.MessagingIDs = map[string]string{"telegram": telegram}
			}
			data, err := newAPIClient().CreateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	createCmd.Flags().StringVarP(&userID, "user-id", "u", "", "User ID (required)")
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	createCmd.Flags().StringVarP(&tz, "tz", "t", "", "IANA timezone, e.g. Asia/Manila")
	createCmd.Flags().StringVar(&telegram, "telegram-chat", "", "Telegram chat id to link")
	_ = createCmd.MarkFlagRequired("user-id")
	profileCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Get a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient().GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	profileCmd.AddCommand(getCmd)
	return profileCmd
}

func newActivitiesCmd() *cobra.Command {
	activitiesCmd := &cobra.Command{Use: "activities", Short: "Activity operations"}

	var userID string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient().ListActivities(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	listCmd.Flags().StringVarP(&userID, "user-id", "u", "", "User ID (required)")
	listCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of activities")
	_ = listCmd.MarkFlagRequired("user-id")
	activitiesCmd.AddCommand(listCmd)

	var logUser, params string
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Log an activity from JSON params, e.g. '{\"activityType\":\"walk\",\"distanceKm\":3}'",
		RunE: func(cmd *cobra.Command, args []string) error {
			var body map[string]any
			if err := json.Unmarshal([]byte(params), &body); err != nil {
				return fmt.Errorf("--json must be a JSON object: %w", err)
			}
			data, err := newAPIClient().LogActivity(cmd.Context(), logUser, body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	logCmd.Flags().StringVarP(&logUser, "user-id", "u", "", "User ID (required)")
	logCmd.Flags().StringVar(&params, "json", "", "Activity params (required)")
	_ = logCmd.MarkFlagRequired("user-id")
	_ = logCmd.MarkFlagRequired("json")
	activitiesCmd.AddCommand(logCmd)
	return activitiesCmd
}

func newGoalsCmd() *cobra.Command {
	var userID, status string
	goalsCmd := &cobra.Command{
		Use:   "goals",
		Short: "List goals, or create one with the create subcommand",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []string
			if status != "" {
				statuses = strings.Split(status, ",")
			}
			data, err := newAPIClient().ListGoals(cmd.Context(), userID, statuses...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	goalsCmd.PersistentFlags().StringVarP(&userID, "user-id", "u", "", "User ID (required)")
	goalsCmd.Flags().StringVarP(&status, "status", "s", "", "Comma-separated statuses to include")
	_ = goalsCmd.MarkPersistentFlagRequired("user-id")

	var goalType, milestone string
	var target float64
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := agentclient.GoalRequest{Type: goalType, Target: target, Milestone: milestone}
			data, err := newAPIClient().CreateGoal(cmd.Context(), userID, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	createCmd.Flags().StringVar(&goalType, "type", "", "Goal type, e.g. daily-steps (required)")
	createCmd.Flags().Float64Var(&target, "target", 0, "Target value (required)")
	createCmd.Flags().StringVar(&milestone, "milestone", "", "Optional milestone")
	_ = createCmd.MarkFlagRequired("type")
	_ = createCmd.MarkFlagRequired("target")
	goalsCmd.AddCommand(createCmd)
	return goalsCmd
}

func newStreaksCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "streaks",
		Short: "Show streaks and whether they are at risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient().Streaks(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVarP(&userID, "user-id", "u", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "summary DATE",
		Short: "Show the daily summary for a local date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newAPIClient().Summary(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVarP(&userID, "user-id", "u", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
