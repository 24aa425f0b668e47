// Package models holds the request and response bodies of the HTTP API.
package models

// HealthData is the body of the health check.
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

// HealthResponse wraps HealthData.
type HealthResponse struct {
	Body HealthData
}

// VersionData describes the running build.
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

// VersionResponse wraps VersionData.
type VersionResponse struct {
	Body VersionData
}

// SurfaceInfo locates one mip level of one layer inside a decoded frame.
type SurfaceInfo struct {
	Level  int    `json:"level" example:"0" doc:"Mip level, 0 is full size"`
	Layer  int    `json:"layer" example:"0" doc:"Array layer or cube face"`
	Width  uint32 `json:"width" example:"1920" doc:"Surface width in pixels"`
	Height uint32 `json:"height" example:"1080" doc:"Surface height in pixels"`
	Offset int    `json:"offset" example:"0" doc:"Byte offset in the pixel payload"`
	Length int    `json:"length" example:"1036800" doc:"Byte length"`
}

// ImageData describes the decoded frame currently held by the session.
type ImageData struct {
	Frame    int           `json:"frame" example:"42" doc:"Index of the frame the image came from"`
	Path     string        `json:"path" example:"/srv/frames/0042.DDS" doc:"Frame file path"`
	Width    uint32        `json:"width" example:"1920" doc:"Level 0 width"`
	Height   uint32        `json:"height" example:"1080" doc:"Level 0 height"`
	Format   string        `json:"format" example:"bc1" doc:"Pixel format"`
	MipCount int           `json:"mip_count" example:"1" doc:"Number of mip levels"`
	Cubemap  bool          `json:"cubemap" doc:"Whether the frame has six faces"`
	Surfaces []SurfaceInfo `json:"surfaces" doc:"Surface descriptors in payload order"`
}

// PlaybackStatus is a snapshot of the playback session.
type PlaybackStatus struct {
	SessionID    string     `json:"session_id" example:"5f0c6c52-3c2e-4a4f-9d0b-6c8f1f3f8a11" doc:"Playback session identifier"`
	Directory    string     `json:"directory" example:"/srv/frames" doc:"Frame directory"`
	Extension    string     `json:"extension" example:".DDS" doc:"Frame file extension"`
	State        string     `json:"state" example:"running" doc:"Streaming engine state"`
	Frames       int        `json:"frames" example:"300" doc:"Number of indexed frames"`
	CurrentFrame int        `json:"current_frame" example:"42" doc:"Frame the engine reads next"`
	CurrentTime  float64    `json:"current_time" example:"1.4014" doc:"Current position in seconds"`
	Duration     float64    `json:"duration" example:"10.01" doc:"Movie duration in seconds"`
	FrameRate    float64    `json:"frame_rate" example:"29.97" doc:"Nominal frames per second"`
	PlayRate     float64    `json:"play_rate" example:"1" doc:"Signed play rate multiplier"`
	AverageFPS   float64    `json:"average_fps" example:"29.9" doc:"Measured frames read per second"`
	Loop         bool       `json:"loop" doc:"Whether playback wraps at either end"`
	Dropped      uint64     `json:"dropped" doc:"Frames overwritten before the consumer took them"`
	Decoded      uint64     `json:"decoded" doc:"Frames decoded and uploaded"`
	DecodeErrors uint64     `json:"decode_errors" doc:"Frames rejected by the decoder"`
	ReadErrors   uint64     `json:"read_errors" doc:"Frame files that could not be read"`
	LastError    string     `json:"last_error,omitempty" doc:"Most recent decode or read error"`
	Image        *ImageData `json:"image,omitempty" doc:"Current decoded frame, absent before the first decode"`
}

// PlaybackResponse wraps PlaybackStatus.
type PlaybackResponse struct {
	Body PlaybackStatus
}

// PlayRateRequest sets the signed play rate.
type PlayRateRequest struct {
	Rate float64 `json:"rate" example:"-0.5" doc:"Play rate multiplier; 0 pauses, negative plays backward"`
}

// SeekRequest moves the play head. Exactly one field must be set.
type SeekRequest struct {
	Frame    *int     `json:"frame,omitempty" example:"120" doc:"Target frame index, clamped to the movie"`
	Time     *float64 `json:"time,omitempty" example:"4.0" doc:"Target time in seconds"`
	Position string   `json:"position,omitempty" enum:"start,end" doc:"Seek to the first or last frame"`
}

// LoopRequest toggles looping.
type LoopRequest struct {
	Loop bool `json:"loop" doc:"Whether playback wraps at either end"`
}

// FrameDescriptor identifies one indexed frame file.
type FrameDescriptor struct {
	Index int    `json:"index" example:"0" doc:"Frame index"`
	Name  string `json:"name" example:"0000.DDS" doc:"File name"`
	Path  string `json:"path" example:"/srv/frames/0000.DDS" doc:"Full path"`
}

// FramesData is a page of the frame index.
type FramesData struct {
	Total  int               `json:"total" example:"300" doc:"Number of indexed frames"`
	Offset int               `json:"offset" example:"0" doc:"Index of the first returned frame"`
	Frames []FrameDescriptor `json:"frames" doc:"Frame descriptors in playback order"`
}

// FramesResponse wraps FramesData.
type FramesResponse struct {
	Body FramesData
}
