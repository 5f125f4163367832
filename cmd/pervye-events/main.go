package main

import "github.com/pfrederiksen/pervye-events/internal/cli"

func main() {
	cli.Execute()
}
