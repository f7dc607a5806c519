package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init configures the shared logrus instance. JSON to stdout so log
// aggregators can index the structured fields (scene, provider, elapsed).
func Init(environment string) {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetOutput(os.Stdout)

	if environment == "development" {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

func init() {
	// Tests and packages that log before main runs get a sane default.
	Init("development")
}
