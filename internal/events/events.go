package events

// Wire event names. These mirror the client protocol exactly and must not
// be renamed independently of the client.
const (
	JoinRequest      = "join-request"
	JoinAccepted     = "join-accepted"
	UserJoined       = "user-joined"
	UserDisconnected = "user-disconnected"
	UsernameExists   = "username-exists"

	SyncFileStructure = "sync-file-structure"
	DirectoryCreated  = "directory-created"
	DirectoryUpdated  = "directory-updated"
	DirectoryRenamed  = "directory-renamed"
	DirectoryDeleted  = "directory-deleted"
	FileCreated       = "file-created"
	FileUpdated       = "file-updated"
	FileRenamed       = "file-renamed"
	FileDeleted       = "file-deleted"

	UserOffline = "offline"
	UserOnline  = "online"

	SendMessage    = "send-message"
	ReceiveMessage = "receive-message"

	TypingStart = "typing-start"
	TypingPause = "typing-pause"
	CursorMove  = "cursor-move"

	RequestDrawing = "request-drawing"
	SyncDrawing    = "sync-drawing"
	DrawingUpdate  = "drawing-update"

	// Legacy sandbox run (shared output panel).
	TerminalExecute = "terminal-execute"
	TerminalOutput  = "terminal-output"
	TerminalReset   = "terminal-reset"

	// Live process streaming.
	TerminalRunCommand = "terminal-run-command"
	TerminalStream     = "terminal-stream"
	TerminalStatus     = "terminal-status"
	TerminalInput      = "terminal-input"
	TerminalStop       = "terminal-stop"
)
