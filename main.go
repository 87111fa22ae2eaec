package main

import (
	"os"

	"smart-schedule/core/logger"
	"smart-schedule/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
		os.Exit(1)
	}
}
