package main

import "umbrella-station/cmd"

func main() {
	cmd.Execute()
}
