package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quizengine/internal/security"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user",
	Long:  "Issue a signed bearer token for a user ID. Intended for development and for trusted upstream identity providers.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.RequireSecret(); err != nil {
			return err
		}

		token, err := security.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL).Issue(userID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "User ID to issue the token for (required)")
	_ = tokenCmd.MarkFlagRequired("user")
}
