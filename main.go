package main

import "github.com/virus-evolution/ecindex/cmd"

func main() {
	cmd.Execute()
}
