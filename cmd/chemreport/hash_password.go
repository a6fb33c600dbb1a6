package main

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"chemviz/internal/security"
)

// newHashPasswordCmd creates the hash-password command
func newHashPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print an scrypt hash for security.auth.users",
		Long: `Hash-password prints the encoded scrypt hash the server expects in
security.auth.users. Without --password the first line of stdin is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return invalidArg("password is required")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return invalidArg("password is required")
			}

			hash, err := security.HashPassword(password)
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password to hash (default: read from stdin)")

	return cmd
}
