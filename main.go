package main

import "chaosdash/cmd"

func main() {
	cmd.Execute()
}
