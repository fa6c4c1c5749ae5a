package main

import (
	"context"
	"os"

	"creditwatch-backend/cmd/creditwatch-cli/commands"
	"creditwatch-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)

	baseUrl, ok := os.LookupEnv("CREDITWATCH_BASE_URL")
	if ok {
		commands.BaseUrl = baseUrl
	}

	commands.ExecuteContext(context.Background())
}
