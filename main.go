package main

import "koi-keeper-backend/cmd"

func main() {
	cmd.Execute()
}
