package main

// @title           DocuMind API
// @version         1.0
// @description     Upload documents into a chat session and ask questions answered from their content.

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

import "github.com/custodia-labs/documind/internal/commands"

var version = "dev"

func main() {
	commands.Execute(version)
}
