package main

import (
	"os"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"

	"github.com/gab-cat/cold-start-sub000/agentservice"
)

func main() {
	if err := agentservice.Run(); err != nil {
		log.Error().Err(err).Msg("agent-service exited with error")
		os.Exit(1)
	}
}
