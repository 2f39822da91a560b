package main

import (
	"os"

	"github.com/isdelr/socialnet/internal/cli"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("socialnet failed")
		os.Exit(1)
	}
}
