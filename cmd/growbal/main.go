package main

import (
	"fmt"
	"os"

	"github.com/Jubii100/Growbal-sub000/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "growbal"}

func main() {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (defaults to DATABASE_URL / DB_* env vars)")
	cli.SetupCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
