package archivechaine

import "github.com/sirupsen/logrus"

func (t *Tracker) log(args ...interface{}) {
	if t.EnableLog {
		logrus.Println(args...)
	}
}

func (t *Tracker) logf(format string, args ...interface{}) {
	if t.EnableLog {
		logrus.Printf(format, args...)
	}
}

func (t *Tracker) verbosef(format string, args ...interface{}) {
	if t.EnableLog && t.EnableVerboseLog {
		logrus.Printf(format, args...)
	}
}
