package main

import "github.com/sarvagyakrcs/team-hammock---kuro/client/studybuddy-cli/cmd"

func main() {
	cmd.Execute()
}
