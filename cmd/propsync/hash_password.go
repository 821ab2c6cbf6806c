package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/wtsks/propsync/internal/config"
)

// errEmptyPassword is returned when no password was read.
var errEmptyPassword = errors.New("empty password")

// NewHashPasswordCmd creates the hash-password command.
func NewHashPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash an admin password for the server configuration",
		Long: `Hash-password reads a password from the first line of standard input and
prints its bcrypt hash. Put the hash in ` + config.EnvAdminPasswordHash + `
or server.adminPasswordHash.

Examples:
  read -rs PW && printf '%s\n' "$PW" | propsync hash-password`,
		Args: cobra.NoArgs,
		RunE: runHashPasswordCmd,
	}

	cmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")

	return cmd
}

// runHashPasswordCmd executes the hash-password command.
func runHashPasswordCmd(cmd *cobra.Command, _ []string) error {
	cost, err := cmd.Flags().GetInt("cost")
	if err != nil {
		return err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("invalid cost %d: must be between %d and %d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return errEmptyPassword
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return errEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(hash))
	return err
}
