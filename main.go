package main

import "github.com/darmiel/vigil/cmd"

func main() {
	cmd.Execute()
}
