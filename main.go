package main

import "github.com/fieldsafe/loneworker/cmd"

func main() {
	cmd.Execute()
}
