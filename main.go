package main

import "github.com/mcpgate/mcpgate/cmd"

func main() {
	cmd.Execute()
}
