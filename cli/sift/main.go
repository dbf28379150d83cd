package main

import (
	"os"

	siftcmder "github.com/cardinalpay/sift/cmd/sift"
)

func main() {
	cmd := siftcmder.NewSiftCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
