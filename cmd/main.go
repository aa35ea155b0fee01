package main

import (
	"agromarket/internal/app"

	"github.com/rs/zerolog/log"
)

func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatal().Err(err).Msg("could not start app")
	}

	app.Run()
}
