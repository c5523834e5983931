// init.go implements "studio init": create the database file, tables, and
// seed rows without starting the server.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialise the database",
		Long: `Create the studio database with its tables, indexes, and the seeded
node-type grammar. Safe to run repeatedly; existing data is untouched.`,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, nil)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Init(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialised %s\n", cfg.DBPath())
	return nil
}
