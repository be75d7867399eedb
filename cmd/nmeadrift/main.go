package main

import "nmea-drift/internal/cli"

func main() {
	cli.Execute()
}
