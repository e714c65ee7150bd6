package main

import "queuesweep/cmd"

func main() {
	cmd.Execute()
}
