package main

import "github.com/dataoneorg/d1logdigest/internal/cmd"

func main() {
	cmd.Execute()
}
