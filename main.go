package main

import "github.com/inovacc/finzana/cmd"

func main() {
	cmd.Execute()
}
