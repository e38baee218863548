package main

import "github.com/frahmantamala/pennytrack/cmd"

func main() {
	cmd.Execute()
}
