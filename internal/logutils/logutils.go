package logutils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. InitLogger must be called once at startup;
// until then the logger runs with logrus defaults so early failures are not lost.
var Log = logrus.New()

func InitLogger(level string) {
	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		Log.Warnf("Invalid log level '%s', defaulting to 'info'", level)
		parsedLevel = logrus.InfoLevel
	}
	Log.SetOutput(os.Stdout)
	Log.SetLevel(parsedLevel)
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	Log.Infof("Log level set to %s", parsedLevel)
}
