package backup

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/williamokano/odoo_backuper/pkg/config"
)

// triggerScript runs inside the Odoo container. It posts the backup form
// to the database manager endpoint and stores the response body in
// $ODOO_BACKUP_FILE, printing only the HTTP status on stdout.
//
// Every value arrives through the environment. The master password is fed
// to curl as a config file on stdin so it never shows up in a process
// argument list.
const triggerScript = `set -e
mkdir -p "$ODOO_BACKUP_DIR"
pwd_escaped=$(printf '%s' "$ODOO_MASTER_PWD" | sed 's/[\\"]/\\&/g')
printf 'form-string = "master_pwd=%s"\n' "$pwd_escaped" | curl -sS -X POST \
	--config - \
	--max-time "$ODOO_MAX_TIME" \
	--form-string "name=$ODOO_DB_NAME" \
	--form-string "backup_format=$ODOO_BACKUP_FORMAT" \
	-o "$ODOO_BACKUP_FILE" \
	-w '%{http_code}' \
	"$ODOO_URL/web/database/backup"
`

// triggerCommand returns the exec command and environment that ask Odoo
// to write a backup of db to containerPath.
func triggerCommand(db config.DatabaseConfig, outputDir, containerPath string, timeout time.Duration) ([]string, []string) {
	maxTime := int(timeout.Seconds())
	if maxTime < 1 {
		maxTime = 1
	}

	env := []string{
		"ODOO_URL=" + strings.TrimRight(db.URL, "/"),
		"ODOO_MASTER_PWD=" + db.MasterPassword.Reveal(),
		"ODOO_DB_NAME=" + db.DatabaseName,
		"ODOO_BACKUP_FORMAT=" + string(db.BackupFormat),
		"ODOO_BACKUP_DIR=" + outputDir,
		"ODOO_BACKUP_FILE=" + containerPath,
		"ODOO_MAX_TIME=" + strconv.Itoa(maxTime),
	}

	return []string{"sh", "-c", triggerScript}, env
}

// parseStatus reads the status code written by curl's -w option.
func parseStatus(stdout []byte) (int, error) {
	s := string(bytes.TrimSpace(stdout))
	code, err := strconv.Atoi(s)
	if err != nil || code < 100 || code > 599 {
		return 0, fmt.Errorf("unexpected curl output %q", s)
	}
	return code, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// magic returns the leading bytes every artifact of the format starts with.
func magic(format config.BackupFormat) []byte {
	switch format {
	case config.FormatZip:
		return []byte("PK\x03\x04")
	case config.FormatDump:
		return []byte("PGDMP")
	default:
		return nil
	}
}
