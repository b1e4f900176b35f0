package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/gab-cat/cold-start-sub000/mcpserver"
)

func main() {
	if err := mcpserver.Run(); err != nil {
		log.Error().Err(err).Msg("agent-mcp-server exited with error")
		os.Exit(1)
	}
}
