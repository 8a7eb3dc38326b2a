package main

import "github.com/janschaeferjohann/seriem-agent/cmd"

func main() {
	cmd.Execute()
}
