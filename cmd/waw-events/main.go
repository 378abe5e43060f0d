package main

import "github.com/geoportal-waw/waw-events/internal/cli"

func main() {
	cli.Execute()
}
