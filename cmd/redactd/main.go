package main

import "github.com/Dicklesworthstone/redactd/internal/cli"

func main() {
	cli.Execute()
}
