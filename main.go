package main

import "github.com/timvw/session-switcher/cmd"

func main() {
	cmd.Execute()
}
