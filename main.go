package main

import "wildcats/cmd"

func main() {
	cmd.Execute()
}
