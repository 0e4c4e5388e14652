package main

import "github.com/VoxDroid/tvrel/cmd"

func main() {
	cmd.Execute()
}
