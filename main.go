package main

import (
	"os"

	"github.com/usefulapp/useful/internal/useful"
)

func main() {
	os.Exit(useful.Main())
}
