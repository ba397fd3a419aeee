package main

import "chatmark/cmd"

func main() {
	cmd.Execute()
}
