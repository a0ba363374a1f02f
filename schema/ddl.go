package schema

import (
	"embed"
	"fmt"
)

//go:embed sql/*.sql
var ddlFiles embed.FS

// DDL returns the statements creating the mailbox tables for a database dialect
func DDL(dialect string) (string, error) {
	content, err := ddlFiles.ReadFile("sql/" + dialect + ".sql")
	if err != nil {
		return "", fmt.Errorf("no schema available for dialect '%s'", dialect)
	}
	return string(content), nil
}
