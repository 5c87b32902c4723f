package exec

import (
	"context"
	"sync"

	"codesync/internal/events"
	"codesync/internal/models"
	"codesync/internal/utils"
)

// Key identifies one terminal session: the process-execution collaborator
// is keyed by (roomId, connectionId).
type Key struct {
	RoomID string
	ConnID string
}

// Emitter delivers a collaborator frame back toward a connection.
type Emitter func(key Key, frame models.Frame)

// RoomEmitter delivers a collaborator frame to a whole room (legacy shared
// run output).
type RoomEmitter func(roomID string, frame models.Frame)

// Executor is the collaborator surface the event layer forwards terminal
// events to. Failures are relayed as error-flagged frames, never returned.
type Executor interface {
	// Run starts a live interactive process for key.
	Run(key Key, command string)
	// Execute is the legacy one-shot run; output is shared with the room.
	Execute(key Key, command string)
	// Input writes stdin to the live process for key.
	Input(key Key, data string)
	// Stop kills the live process for key.
	Stop(key Key)
	// StopAll kills every live process owned by connID.
	StopAll(connID string)
}

type process interface {
	Input(data string) error
	Stop()
}

type runtime interface {
	Start(ctx context.Context, command string, onStdout, onStderr func([]byte), onExit func(code int)) (process, error)
	RunOnce(ctx context.Context, command string, onStdout, onStderr func([]byte)) (exit int, timedOut bool, err error)
}

type dockerRuntime struct{ sbx *Sandbox }

func (d dockerRuntime) Start(ctx context.Context, command string, onStdout, onStderr func([]byte), onExit func(code int)) (process, error) {
	return d.sbx.Start(ctx, command, onStdout, onStderr, onExit)
}

func (d dockerRuntime) RunOnce(ctx context.Context, command string, onStdout, onStderr func([]byte)) (int, bool, error) {
	return d.sbx.RunOnce(ctx, command, onStdout, onStderr)
}

// Manager tracks live processes per session key and turns raw output into
// terminal-stream / terminal-status frames.
type Manager struct {
	mu       sync.Mutex
	rt       runtime
	procs    map[Key]process
	emit     Emitter
	emitRoom RoomEmitter
	log      *utils.Logger
}

func NewManager(sbx *Sandbox, emit Emitter, emitRoom RoomEmitter, log *utils.Logger) *Manager {
	return newManager(dockerRuntime{sbx: sbx}, emit, emitRoom, log)
}

func newManager(rt runtime, emit Emitter, emitRoom RoomEmitter, log *utils.Logger) *Manager {
	return &Manager{
		rt:       rt,
		procs:    make(map[Key]process),
		emit:     emit,
		emitRoom: emitRoom,
		log:      log,
	}
}

func (m *Manager) Run(key Key, command string) {
	m.Stop(key)

	stdout := &lineBuffer{}
	stderr := &lineBuffer{}
	onStdout := func(p []byte) { m.stream(key, stdout.Feed(p), false) }
	onStderr := func(p []byte) { m.stream(key, stderr.Feed(p), true) }
	onExit := func(code int) {
		m.stream(key, stdout.Flush(), false)
		m.stream(key, stderr.Flush(), true)
		m.mu.Lock()
		delete(m.procs, key)
		m.mu.Unlock()
		c := code
		m.emit(key, models.NewFrame(events.TerminalStatus, models.TerminalStatus{Status: "exited", Code: &c}))
	}

	proc, err := m.rt.Start(context.Background(), command, onStdout, onStderr, onExit)
	if err != nil {
		m.log.Error("terminal start failed", "room", key.RoomID, "conn", key.ConnID, "error", err.Error())
		m.emit(key, models.NewFrame(events.TerminalStream, models.TerminalStream{Lines: []string{err.Error()}, IsError: true}))
		m.emit(key, models.NewFrame(events.TerminalStatus, models.TerminalStatus{Status: "error"}))
		return
	}

	m.mu.Lock()
	m.procs[key] = proc
	m.mu.Unlock()
	m.emit(key, models.NewFrame(events.TerminalStatus, models.TerminalStatus{Status: "running"}))
}

func (m *Manager) Execute(key Key, command string) {
	m.emitRoom(key.RoomID, models.Frame{Event: events.TerminalReset})

	stdout := &lineBuffer{}
	stderr := &lineBuffer{}
	onStdout := func(p []byte) { m.streamRoom(key.RoomID, events.TerminalOutput, stdout.Feed(p), false) }
	onStderr := func(p []byte) { m.streamRoom(key.RoomID, events.TerminalOutput, stderr.Feed(p), true) }

	_, timedOut, err := m.rt.RunOnce(context.Background(), command, onStdout, onStderr)
	m.streamRoom(key.RoomID, events.TerminalOutput, stdout.Flush(), false)
	m.streamRoom(key.RoomID, events.TerminalOutput, stderr.Flush(), true)
	if err != nil {
		m.log.Error("terminal execute failed", "room", key.RoomID, "error", err.Error())
		m.streamRoom(key.RoomID, events.TerminalOutput, []string{err.Error()}, true)
		return
	}
	if timedOut {
		m.streamRoom(key.RoomID, events.TerminalOutput, []string{"command timed out"}, true)
	}
}

func (m *Manager) Input(key Key, data string) {
	m.mu.Lock()
	proc, ok := m.procs[key]
	m.mu.Unlock()
	if !ok {
		m.emit(key, models.NewFrame(events.TerminalStream, models.TerminalStream{Lines: []string{"no running process"}, IsError: true}))
		return
	}
	if err := proc.Input(data); err != nil {
		m.emit(key, models.NewFrame(events.TerminalStream, models.TerminalStream{Lines: []string{err.Error()}, IsError: true}))
	}
}

func (m *Manager) Stop(key Key) {
	m.mu.Lock()
	proc, ok := m.procs[key]
	delete(m.procs, key)
	m.mu.Unlock()
	if ok {
		proc.Stop()
	}
}

func (m *Manager) StopAll(connID string) {
	m.mu.Lock()
	var owned []process
	for key, proc := range m.procs {
		if key.ConnID == connID {
			owned = append(owned, proc)
			delete(m.procs, key)
		}
	}
	m.mu.Unlock()
	for _, proc := range owned {
		proc.Stop()
	}
}

func (m *Manager) stream(key Key, lines []string, isError bool) {
	if len(lines) == 0 {
		return
	}
	m.emit(key, models.NewFrame(events.TerminalStream, models.TerminalStream{Lines: lines, IsError: isError}))
}

func (m *Manager) streamRoom(roomID, event string, lines []string, isError bool) {
	if len(lines) == 0 {
		return
	}
	m.emitRoom(roomID, models.NewFrame(event, models.TerminalStream{Lines: lines, IsError: isError}))
}
