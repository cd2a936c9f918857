package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "分析某个市场领域的趋势、机会与风险",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.Close()

			resp := e.ProcessQuery(cmd.Context(), strings.Join(args, " "), domain)
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "市场领域，例如 SaaS")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var stateID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "基于一次已保存的分析结果追问",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.Close()

			resp := e.AnswerQuestion(cmd.Context(), strings.Join(args, " "), stateID)
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVarP(&stateID, "state", "s", "", "query 返回的 state_id")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <state_id>",
		Short: "输出已保存的查询状态",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.Close()

			st, err := e.Store().Get(cmd.Context(), args[0])
			if err != nil {
				return errors.Join(errors.New("state lookup failed"), err)
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}
