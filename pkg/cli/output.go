package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/williamokano/odoo_backuper/pkg/backup"
	"github.com/williamokano/odoo_backuper/pkg/config"
	"github.com/williamokano/odoo_backuper/pkg/rotation"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.Bold)
)

func printReport(w io.Writer, report backup.Report, verbose bool) {
	for _, o := range report.Outcomes {
		printOutcome(w, o, verbose)
	}

	failed := report.Failed()
	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d succeeded, %d failed", len(report.Outcomes)-failed, failed)
	if failed > 0 {
		failColor.Fprintln(w, summary)
	} else {
		okColor.Fprintln(w, summary)
	}
}

func printOutcome(w io.Writer, o backup.Outcome, verbose bool) {
	label := fmt.Sprintf("%s (%s)", o.Name, o.DatabaseName)

	if o.Err != nil {
		failColor.Fprintf(w, "✗ %s: %s\n", label, describeError(o.Err))
		if verbose {
			for _, cause := range causeChain(o.Err) {
				fmt.Fprintf(w, "    caused by: %s\n", cause)
			}
		}
		return
	}

	if o.Record != nil {
		okColor.Fprintf(w, "✓ %s: %s (%s)\n", label, o.Record.Path, humanize.Bytes(uint64(o.Record.Size)))
	} else {
		okColor.Fprintf(w, "✓ %s\n", label)
	}

	for _, warning := range o.Warnings {
		warnColor.Fprintf(w, "    warning: %v\n", warning)
	}

	for _, res := range o.Replication {
		if res.Success {
			fmt.Fprintf(w, "    replicated to %s (%s)\n", res.BackendName, res.BackendType)
		} else {
			failColor.Fprintf(w, "    replication to %s failed: %v\n", res.BackendName, res.Error)
		}
	}

	for _, r := range o.Removed {
		fmt.Fprintf(w, "    removed %s\n", r.Path)
	}
	for _, p := range o.RemoteRemoved {
		fmt.Fprintf(w, "    removed %s\n", p)
	}
	for _, f := range o.RetentionFailures {
		failColor.Fprintf(w, "    retention: %v\n", f)
	}
}

// describeError names the proximate cause of a failed backup.
func describeError(err error) string {
	var stepErr *backup.StepError
	if errors.As(err, &stepErr) {
		return fmt.Sprintf("%v (%s step)", stepErr.Kind, stepErr.Step)
	}
	return err.Error()
}

// causeChain lists the wrapped errors below err, outermost first.
func causeChain(err error) []string {
	var chain []string

	var stepErr *backup.StepError
	if errors.As(err, &stepErr) {
		err = stepErr.Err
	} else {
		err = errors.Unwrap(err)
	}

	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}

func printDatabases(w io.Writer, dbs []config.DatabaseConfig) {
	headColor.Fprintf(w, "Configured databases (%d)\n", len(dbs))
	for _, db := range dbs {
		retention := fmt.Sprintf("%d days", db.RetentionDays)
		if db.RetentionDays == 1 {
			retention = "1 day"
		}

		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", db.Name)
		fmt.Fprintf(w, "    database:  %s\n", db.DatabaseName)
		fmt.Fprintf(w, "    container: %s\n", db.ContainerName)
		fmt.Fprintf(w, "    url:       %s\n", db.URL)
		fmt.Fprintf(w, "    format:    %s\n", db.BackupFormat)
		fmt.Fprintf(w, "    retention: %s\n", retention)
	}
}

func printStatuses(w io.Writer, statuses []backup.ContainerStatus, verbose bool) {
	headColor.Fprintln(w, "Configured containers")
	for _, st := range statuses {
		switch {
		case st.Err != nil:
			warnColor.Fprintf(w, "  ? %s (%s): %s\n", st.Name, st.ContainerName, st.Err)
			if verbose {
				for _, cause := range causeChain(st.Err) {
					fmt.Fprintf(w, "    caused by: %s\n", cause)
				}
			}
		case st.Running:
			okColor.Fprintf(w, "  ✓ %s (%s): running\n", st.Name, st.ContainerName)
		default:
			failColor.Fprintf(w, "  ✗ %s (%s): not running\n", st.Name, st.ContainerName)
		}
	}
}

func printRunning(w io.Writer, names []string) {
	fmt.Fprintln(w)
	headColor.Fprintf(w, "Running containers (%d)\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

func printRecords(w io.Writer, backupDir string, records []rotation.BackupRecord) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No backups found in %s\n", backupDir)
		return
	}

	var total int64
	for _, r := range records {
		total += r.Size
		fmt.Fprintf(w, "%-20s  %s  %8s  %s\n",
			r.DatabaseName,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			humanize.Bytes(uint64(r.Size)),
			r.Path,
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d backups, %s total\n", len(records), humanize.Bytes(uint64(total)))
}
