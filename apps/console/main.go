package main

import "github.com/trezcool/maintenance/apps/console/cmd"

func main() {
	cmd.Execute()
}
