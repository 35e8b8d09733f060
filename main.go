package main

import "idcheck/cmd"

func main() {
	cmd.Execute()
}
