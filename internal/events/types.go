package events

// Event type constants for kelindar/event.
const (
	TypeFrameDecoded uint32 = iota + 1
	TypeDecodeFailed
	TypeReadFailed
	TypeSeek
	TypePlayRateChanged
	TypeLoopChanged
	TypeIndexReloaded
	TypeEngineStateChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// FrameDecodedEvent is published when a frame is decoded and handed to the backend.
type FrameDecodedEvent struct {
	SessionID string `json:"session_id" example:"5f0c6c52-3c2e-4a4f-9d0b-6c8f1f3f8a11" doc:"Playback session identifier"`
	Frame     int    `json:"frame" example:"42" doc:"Frame index"`
	Path      string `json:"path" example:"/srv/frames/0042.DDS" doc:"Frame file path"`
	Width     int    `json:"width" example:"1920" doc:"Level 0 width in pixels"`
	Height    int    `json:"height" example:"1080" doc:"Level 0 height in pixels"`
	Format    string `json:"format" example:"bc1" doc:"Pixel format"`
	MipCount  int    `json:"mip_count" example:"1" doc:"Number of mip levels"`
	Cubemap   bool   `json:"cubemap" doc:"Whether the frame is a cubemap"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FrameDecodedEvent.
func (e FrameDecodedEvent) Type() uint32 { return TypeFrameDecoded }

// DecodeFailedEvent is published when a frame buffer is not a usable DDS file.
// The previously decoded image stays on screen.
type DecodeFailedEvent struct {
	SessionID string `json:"session_id" doc:"Playback session identifier"`
	Frame     int    `json:"frame" example:"42" doc:"Frame index"`
	Path      string `json:"path" doc:"Frame file path"`
	Code      string `json:"code" example:"BAD_MAGIC" doc:"Decoder error code"`
	Error     string `json:"error" doc:"Detailed error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DecodeFailedEvent.
func (e DecodeFailedEvent) Type() uint32 { return TypeDecodeFailed }

// ReadFailedEvent is published when the engine cannot read a frame file.
type ReadFailedEvent struct {
	SessionID string `json:"session_id" doc:"Playback session identifier"`
	Frame     int    `json:"frame" example:"42" doc:"Frame index"`
	Path      string `json:"path" doc:"Frame file path"`
	Error     string `json:"error" example:"permission denied" doc:"Detailed error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ReadFailedEvent.
func (e ReadFailedEvent) Type() uint32 { return TypeReadFailed }

// SeekEvent is published when the play head is moved explicitly.
type SeekEvent struct {
	SessionID string `json:"session_id" doc:"Playback session identifier"`
	Frame     int    `json:"frame" example:"120" doc:"Target frame after clamping"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SeekEvent.
func (e SeekEvent) Type() uint32 { return TypeSeek }

// PlayRateChangedEvent is published when the play rate changes.
type PlayRateChangedEvent struct {
	SessionID string  `json:"session_id" doc:"Playback session identifier"`
	Rate      float64 `json:"rate" example:"-0.5" doc:"New play rate"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlayRateChangedEvent.
func (e PlayRateChangedEvent) Type() uint32 { return TypePlayRateChanged }

// LoopChangedEvent is published when looping is toggled.
type LoopChangedEvent struct {
	SessionID string `json:"session_id" doc:"Playback session identifier"`
	Loop      bool   `json:"loop" doc:"Whether playback wraps"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LoopChangedEvent.
func (e LoopChangedEvent) Type() uint32 { return TypeLoopChanged }

// IndexReloadedEvent is published after the frame list is rebuilt.
type IndexReloadedEvent struct {
	SessionID string `json:"session_id" doc:"Playback session identifier"`
	Directory string `json:"directory" example:"/srv/frames" doc:"Frame directory"`
	Frames    int    `json:"frames" example:"300" doc:"Number of frames after reload"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for IndexReloadedEvent.
func (e IndexReloadedEvent) Type() uint32 { return TypeIndexReloaded }

// EngineStateChangedEvent is published on streaming engine lifecycle transitions.
type EngineStateChangedEvent struct {
	SessionID string `json:"session_id" doc:"Playback session identifier"`
	OldState  string `json:"old_state" example:"idle" doc:"Previous state"`
	NewState  string `json:"new_state" example:"running" doc:"New state"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EngineStateChangedEvent.
func (e EngineStateChangedEvent) Type() uint32 { return TypeEngineStateChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"stream" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
