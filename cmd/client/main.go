package main

import (
	"studysync/cmd/client/cmd"
)

func main() {
	cmd.Execute()
}
