package main

import "github.com/angelospk/gamecrawl/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
