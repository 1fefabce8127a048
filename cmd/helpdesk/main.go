package main

import (
	"log"

	"github.com/suportia/helpdesk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
