package logger

import "github.com/sirupsen/logrus"

var Logger = logrus.New()
var logLevel logrus.Level = logrus.InfoLevel

func Init() {
	Logger.SetLevel(logLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}
