// migrate applies or rolls back the embedded schema migrations against DATABASE_URL.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/jrsteele09/yanssound-auth/internal/config"
	"github.com/jrsteele09/yanssound-auth/internal/database"
	"github.com/jrsteele09/yanssound-auth/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())

	db, err := database.Open(context.Background(), c.GetDatabaseDriver(), c.GetDatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Str("driver", c.GetDatabaseDriver()).Msg("failed to open database")
	}

	switch *direction {
	case "up":
		err = db.Migrate()
	case "down":
		err = db.MigrateDown()
	default:
		err = fmt.Errorf("unknown direction %q, want up or down", *direction)
	}
	db.Close()
	if err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("migration failed")
	}
	log.Info().Str("direction", *direction).Msg("migrations applied")
}
