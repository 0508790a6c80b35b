package main

import "github.com/takumiyoshikawa/avro-to-json/cmd/avro-to-json/commands"

func main() {
	commands.Execute()
}
