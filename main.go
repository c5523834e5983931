package main

import "github.com/blueprintlab/studio/cmd"

func main() {
	cmd.Execute()
}
