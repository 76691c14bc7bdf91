package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSyncCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the local cache to the remote database (last write wins)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, cache, closeAll, err := cli.openPlanner(ctx, false)
			if err != nil {
				return err
			}
			defer closeAll()

			snap, found, err := cache.Load(ctx)
			if err != nil {
				return errors.Wrap(err, "reading local cache")
			}
			if !found {
				fmt.Fprintln(cmd.OutOrStdout(), "local cache is empty: nothing to push")
				return nil
			}
			svc.State().Replace(snap)
			if err = svc.Sync(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d activities, %d students, %d class entries\n",
				len(snap.Activities), len(snap.Students), len(snap.ClassEntries))
			return nil
		},
	}
}

func newExportCmd(cli *commandLine) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of every planner data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, closeAll, err := cli.openPlanner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeAll()

			data, filename, err := svc.Export()
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if output == "" {
				output = filename
			}
			if err = os.WriteFile(output, data, 0o600); err != nil {
				return errors.Wrap(err, "writing backup")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "exported to "+output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file (default: the dated backup name; "-" for stdout)`)
	return cmd
}

func newImportCmd(cli *commandLine) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace every planner data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading backup")
			}

			ctx := cmd.Context()
			svc, _, closeAll, err := cli.openPlanner(ctx, true)
			if err != nil {
				return err
			}
			defer closeAll()

			snap, err := svc.Import(ctx, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d activities, %d students, %d class entries\n",
				len(snap.Activities), len(snap.Students), len(snap.ClassEntries))
			return nil
		},
	}
}

func newBackupCmd(cli *commandLine) *cobra.Command {
	var (
		toS3, toEmail bool
		recipient     string
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive a backup in S3 and/or email it (both when configured, by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, _, closeAll, err := cli.openPlanner(ctx, true)
			if err != nil {
				return err
			}
			defer closeAll()

			backups, err := cli.openBackups(ctx, svc)
			if err != nil {
				return err
			}
			if !toS3 && !toEmail {
				toS3, toEmail = backups.StoreEnabled(), backups.MailerEnabled()
			}
			if !toS3 && !toEmail {
				_ = cmd.Usage()
				return errHelp
			}

			if toS3 {
				info, err := backups.Archive(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "archived %s (%d bytes)\n", info.Key, info.Size)
			}
			if toEmail {
				summary, err := backups.Email(recipient)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "emailed "+summary.Filename)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&toS3, "s3", false, "Archive the backup in the S3 bucket")
	cmd.Flags().BoolVar(&toEmail, "email", false, "Email the backup")
	cmd.Flags().StringVar(&recipient, "to", "", "Recipient (default: teacherEmail)")
	return cmd
}
