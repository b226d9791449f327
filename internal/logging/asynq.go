package logging

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// asynqLogger routes asynq's internal logs through zerolog.
type asynqLogger struct{}

// AsynqLogger returns an asynq.Logger backed by the global zerolog logger.
func AsynqLogger() asynq.Logger {
	return asynqLogger{}
}

func (asynqLogger) Debug(args ...interface{}) { emit(log.Debug(), args) }
func (asynqLogger) Info(args ...interface{})  { emit(log.Info(), args) }
func (asynqLogger) Warn(args ...interface{})  { emit(log.Warn(), args) }
func (asynqLogger) Error(args ...interface{}) { emit(log.Error(), args) }
func (asynqLogger) Fatal(args ...interface{}) { emit(log.Fatal(), args) }

func emit(e *zerolog.Event, args []interface{}) {
	e.Str("component", "asynq").Msg(fmt.Sprint(args...))
}
