package main

import (
	"os"

	"medical-messenger/cmd/cli"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logrus.Errorf("medmsg: %v", err)
		os.Exit(1)
	}
}
