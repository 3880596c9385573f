package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/afero"

	"github.com/satishbabariya/pgquery/cli/internal/config"
	"github.com/satishbabariya/pgquery/cli/internal/sqlkind"
)

var errAborted = errors.New("aborted")

// readSQL returns the statement text for an argument that is either SQL or
// the path of a .sql file. path is empty for inline SQL.
func readSQL(arg string) (sql string, path string, err error) {
	if !strings.HasSuffix(strings.ToLower(arg), ".sql") {
		return arg, "", nil
	}

	content, err := afero.ReadFile(config.AppFs, arg)
	if err != nil {
		return "", "", fmt.Errorf("failed to read SQL file: %w", err)
	}
	return string(content), arg, nil
}

// toArgs converts --arg values into statement parameters
func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

// confirmWrite asks before running SQL that changes data. Read-only SQL
// and --yes skip the question.
func (a *app) confirmWrite(sql string, yes bool) error {
	statements, err := sqlkind.Split(sql)
	if err != nil {
		return err
	}

	var writes []string
	for _, stmt := range statements {
		if stmt.Kind == sqlkind.Write {
			writes = append(writes, stmt.Keyword)
		}
	}
	if len(writes) == 0 || yes {
		return nil
	}

	ok, err := a.confirm(fmt.Sprintf("This will run %s statement(s) that may modify the database. Continue?", strings.Join(writes, ", ")))
	if err != nil {
		return fmt.Errorf("confirmation failed (pass --yes to skip it): %w", err)
	}
	if !ok {
		return errAborted
	}
	return nil
}

func surveyConfirm(message string) (bool, error) {
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		return false, errors.New("stdin is not a terminal")
	}

	ok := false
	prompt := &survey.Confirm{
		Message: message,
		Default: false,
	}
	if err := survey.AskOne(prompt, &ok); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
