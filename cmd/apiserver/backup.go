package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/bulkbuddy/internal/storage"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create, list and decrypt database backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Write a verified backup of the database now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStorage(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		path, err := store.DB().Backup(cmd.Context(), cfg.Database.Path, backupConfig(cfg))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir := cfg.Database.BackupDir
		if dir == "" {
			dir = filepath.Join(filepath.Dir(cfg.Database.Path), "backups")
		}
		backups, err := storage.ListBackups(dir)
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No backups in %s\n", dir)
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CREATED\tSIZE\tPATH")
		for _, b := range backups {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size, b.Path)
		}
		return tw.Flush()
	},
}

var decryptOutput string

var backupDecryptCmd = &cobra.Command{
	Use:   "decrypt FILE",
	Short: "Decrypt an encrypted backup with the configured passphrase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.BackupPassphrase == "" {
			return fmt.Errorf("database.backup_passphrase is not set")
		}

		out := decryptOutput
		if out == "" {
			out = strings.TrimSuffix(args[0], ".enc")
			if out == args[0] {
				out = args[0] + ".db"
			}
		}
		if err := storage.DecryptFile(args[0], out, cfg.Database.BackupPassphrase); err != nil {
			return err
		}
		if err := storage.VerifyBackup(cmd.Context(), out); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	backupDecryptCmd.Flags().StringVarP(&decryptOutput, "output", "o", "", "Output path (default: FILE without .enc)")
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupDecryptCmd)
}
