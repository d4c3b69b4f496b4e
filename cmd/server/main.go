package main

import (
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/server"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/util"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleBackend := console.NewConsoleBackend(console.ConsoleBackendParams{
		Debug: debug,
	})
	logger.Init(consoleBackend)

	server.Init()
}
