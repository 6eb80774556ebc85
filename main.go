package main

import "github.com/linanwx/conveyor/cmd"

func main() {
	cmd.Execute()
}
