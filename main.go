package main

import "github.com/averen/sigil/cmd"

func main() {
	cmd.Execute()
}
