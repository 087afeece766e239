package main

import "github.com/tranvictor/ensprefs/cmd"

func main() {
	cmd.Execute()
}
