package main

import "github.com/oshokin/latest-manifest/cmd/latest-manifest/cmd"

func main() {
	cmd.Execute()
}
