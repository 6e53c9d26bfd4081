package main

import (
	"github.com/covadev/covatrace/internal/server"
	"github.com/covadev/covatrace/internal/util"
	"github.com/covadev/covatrace/pkg/logger"
	"github.com/covadev/covatrace/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewLogger(console.Params{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
