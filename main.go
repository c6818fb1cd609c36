package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/williamokano/odoo_backuper/pkg/cli"
)

func main() {
	// .env is optional; it only supplies ODOO_BACKUP_* defaults
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
