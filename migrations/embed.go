// Package migrations embeds SQL migration files into the binary so
// BotLink can migrate its database without the files present on disk.
package migrations

import (
	"embed"

	"github.com/nerrad567/botlink-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // files are at the root of the embedded FS
}
