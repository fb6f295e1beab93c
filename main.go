package main

import "github.com/mash021/meal-sharing/cmd"

func main() {
	cmd.Execute()
}
