package runtimecfg

import "time"

const (
	QueueDefaultSpeed = "100ms"
)

const (
	IdleDefaultDelay  = 5 * time.Second
	IdleDefaultEvents = "keydown keyup mousemove mousedown scroll"
)

const (
	DOMStateAttr = "data-thinking"
	DOMIdleClass = "thinking-idle"
)

const (
	ConfigDirName  = ".conveyor"
	ConfigFileName = "config.yaml"
	LogFileName    = "conveyor.log"
)
