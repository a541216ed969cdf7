package main

import "github.com/replycorpus/curator/cmd"

func main() {
	cmd.Execute()
}
