package main

import "github.com/Ronitsabhaya75/Habit-Quest-sub001/cmd"

func main() {
	cmd.Execute()
}
