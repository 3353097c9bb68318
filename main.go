package main

import "github.com/memberhub/apiserver/cmd"

func main() {
	cmd.Execute()
}
