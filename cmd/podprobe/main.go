package main

import "github.com/rzbill/podprobe/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
