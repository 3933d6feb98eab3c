package core

// Dispatcher commands raised by the frame loop.
const (
	// CommandStateChanged carries a Transition each time a notification is sent.
	CommandStateChanged = ":STATE:CHANGED:"
	// CommandFrameStats carries a FrameStats at the end of each stats window.
	CommandFrameStats = ":FRAME:STATS:"
	// CommandSessionEnd carries the finished Session.
	CommandSessionEnd = ":SESSION:END:"
)
