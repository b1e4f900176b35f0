package main

import (
	"os"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"

	"github.com/gab-cat/cold-start-sub000/outboxworker"
)

func main() {
	if err := outboxworker.Run(); err != nil {
		log.Error().Err(err).Msg("outbox-worker exited with error")
		os.Exit(1)
	}
}
