package main

import "github.com/maximbilan/llmbridge/cmd"

func main() {
	cmd.Execute()
}
