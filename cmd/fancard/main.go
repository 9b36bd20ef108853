package main

import "github.com/MeKo-Tech/fancard/cmd/fancard/cmd"

func main() {
	cmd.Execute()
}
