package main

import "github.com/pipshow-dev/pipshow/cmd"

func main() {
	cmd.Execute()
}
