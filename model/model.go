package model

import (
	"fmt"
	"runtime/debug"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

// Source describes where frames come from and how large they are.
type Source struct {
	Name       string `json:"name"`
	URL        string `json:"url"` // device index, file, URL or GStreamer pipeline
	FramerType string `json:"framerType"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FPS        int    `json:"fps"`
}

type AgentStats struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Filter    string `json:"filter"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}

type FramerStats struct {
	Name          string `json:"name"`
	Source        string `json:"source"`
	FPS           int    `json:"fps"`
	Frames        int    `json:"frames"`
	DroppedFrames int    `json:"droppedFrames"`
	Errors        int    `json:"errors"`
	Uptime        int64  `json:"uptime"`
	Timestamp     int64  `json:"timestamp"`
}

type MatterStats struct {
	Name             string  `json:"name"`
	Filter           string  `json:"filter"`
	Source           string  `json:"source"`
	FPS              int     `json:"fps"`
	Frames           int     `json:"frames"`
	Composited       int     `json:"composited"`
	Passthrough      int     `json:"passthrough"`
	Skipped          int     `json:"skipped"`
	ValidationErrors int     `json:"validationErrors"`
	BackendErrors    int     `json:"backendErrors"`
	LogicErrors      int     `json:"logicErrors"`
	BackgroundSwaps  int     `json:"backgroundSwaps"`
	Uptime           int64   `json:"uptime"`
	AvgProcTime      float64 `json:"avgProcTime"`
	Timestamp        int64   `json:"timestamp"`
}

type SinkStats struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Frames    int    `json:"frames"`
	Dropped   int    `json:"dropped"`
	Errors    int    `json:"errors"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}
