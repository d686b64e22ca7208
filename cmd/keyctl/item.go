package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"inventory-envelope/internal/domain"
)

// itemCmd は品目の暗号化ファイル入出力コマンド。
func itemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Export or import encrypted item files",
	}
	cmd.AddCommand(itemExportCmd())
	cmd.AddCommand(itemImportCmd())
	return cmd
}

func itemExportCmd() *cobra.Command {
	var file, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Encrypt an item JSON file into a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading item file: %w", err)
			}
			var item domain.ItemRecord
			if err := json.Unmarshal(raw, &item); err != nil {
				return fmt.Errorf("parsing item file: %w", err)
			}

			body, err := callAPI(http.MethodPost, "/v1/items/export", map[string]interface{}{"item": item}, http.StatusOK)
			if err != nil {
				return err
			}
			var resp struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
				return nil
			}
			if err := os.WriteFile(out, []byte(resp.Token), 0600); err != nil {
				return fmt.Errorf("writing token file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", item.Name, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Item JSON file (required)")
	cmd.Flags().StringVar(&out, "out", "", "Write the token to this file instead of stdout")
	cmd.MarkFlagRequired("file")
	return cmd
}

func itemImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Decrypt an encrypted item file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading token file: %w", err)
			}

			body, err := callAPI(http.MethodPost, "/v1/items/import", map[string]string{"token": strings.TrimSpace(string(raw))}, http.StatusCreated)
			if err != nil {
				return err
			}
			if output == "json" {
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
				return nil
			}

			var resp struct {
				Item domain.ItemRecord `json:"item"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (quantity: %d, supplier: %s)\n", resp.Item.Name, resp.Item.Quantity, resp.Item.SupplierName)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Token file produced by item export (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}
