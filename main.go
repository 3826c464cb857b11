package main

import (
	"github.com/anoixa/colab/cmd"
	"github.com/anoixa/colab/config"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.Printf("colab %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
