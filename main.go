package main

import "github.com/j0nl1/aitracker/cmd"

func main() {
	cmd.Execute()
}
