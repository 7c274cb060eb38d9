package main

import "aponte/cmd"

func main() {
	cmd.Run()
}
