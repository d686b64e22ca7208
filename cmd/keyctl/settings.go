package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inventory-envelope/internal/domain"
)

// settingsCmd は設定の参照・更新コマンド。
func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or update encrypted settings",
	}
	cmd.AddCommand(settingsGetCmd())
	cmd.AddCommand(settingsSetCmd())
	return cmd
}

func settingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := callAPI(http.MethodGet, "/v1/settings", nil, http.StatusOK)
			if err != nil {
				return err
			}
			if output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
				return nil
			}

			var s domain.Settings
			if err := json.Unmarshal(body, &s); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "FIELD\tVALUE")
			fmt.Fprintf(w, "%s\t%t\n", domain.FieldHideSensitive, s.HideSensitive)
			fmt.Fprintf(w, "%s\t%t\n", domain.FieldAllowShare, s.AllowShare)
			fmt.Fprintf(w, "%s\t%t\n", domain.FieldUseDefaultQuantity, s.UseDefaultQuantity)
			fmt.Fprintf(w, "%s\t%d\n", domain.FieldDefaultQuantity, s.DefaultQuantity)
			return w.Flush()
		},
	}
}

func settingsSetCmd() *cobra.Command {
	var field, value string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update one setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := domain.ParseSettingsField(field); err != nil {
				return err
			}
			if _, err := callAPI(http.MethodPut, "/v1/settings/"+field, map[string]string{"value": value}, http.StatusNoContent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", field)
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "Settings field: hide_sensitive, allow_share, use_default_quantity, default_quantity (required)")
	cmd.Flags().StringVar(&value, "value", "", "New value (required)")
	cmd.MarkFlagRequired("field")
	cmd.MarkFlagRequired("value")
	return cmd
}
