package services

import "draftdesk/logger"

func log() *logger.Logger {
	return logger.Default()
}
