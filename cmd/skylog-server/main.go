package main

import (
	"fmt"
	"os"

	"github.com/skylog-app/skylog/moodservice"
)

func main() {
	if err := moodservice.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
