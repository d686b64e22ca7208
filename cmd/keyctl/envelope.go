package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

// readArgOrStdin は引数があればそれを、無ければ標準入力を返す。
func readArgOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// encryptCmd は文字列の暗号化コマンド。
func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [plaintext]",
		Short: "Encrypt a string into a token (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plaintext, err := readArgOrStdin(cmd, args)
			if err != nil {
				return err
			}
			body, err := callAPI(http.MethodPost, "/v1/envelope/encrypt", map[string]string{"plaintext": plaintext}, http.StatusOK)
			if err != nil {
				return err
			}
			return printField(cmd, body, "token")
		},
	}
}

// decryptCmd はトークンの復号コマンド。
func decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [token]",
		Short: "Decrypt a token (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readArgOrStdin(cmd, args)
			if err != nil {
				return err
			}
			body, err := callAPI(http.MethodPost, "/v1/envelope/decrypt", map[string]string{"token": token}, http.StatusOK)
			if err != nil {
				return err
			}
			return printField(cmd, body, "plaintext")
		},
	}
}
