package main

import "github.com/offlinefirst/guidecast/internal/cmd"

func main() {
	cmd.Execute()
}
