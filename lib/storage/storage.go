package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config selects between a local sqlite file and a remote libsql
// database. A local file is the default deployment; the remote option
// exists so the CRM host and the import engine can share one store.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		file := config.File
		if file == "" {
			file = ":memory:"
		}
		return sql.Open("sqlite", file)
	}

	dsn := config.Url
	if config.AuthToken != "" {
		dsn = fmt.Sprintf("%s?authToken=%s", config.Url, config.AuthToken)
	}
	return sql.Open("libsql", dsn)
}
