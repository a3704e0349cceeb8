package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// LatLng is a geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// POV is the panorama point of view.
type POV struct {
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
	Zoom    float64 `json:"zoom"`
}

// ViewState mirrors streetview.ViewState.
type ViewState struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
	Zoom    float64 `json:"zoom"`
}

// CaptureRequest mirrors streetview.CaptureRequest.
type CaptureRequest struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
	FOV     float64 `json:"fov"`
}

// PanoramaInfo describes the panorama attached after a map click.
type PanoramaInfo struct {
	ID             string  `json:"panoId"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Date           string  `json:"date,omitempty"`
	Copyright      string  `json:"copyright,omitempty"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// ViewResponse reports the panorama pane state.
type ViewResponse struct {
	View           *ViewState    `json:"view,omitempty"`
	Panorama       *PanoramaInfo `json:"panorama,omitempty"`
	Error          string        `json:"error,omitempty"`
	TriggerEnabled bool          `json:"triggerEnabled"`
}

// JobResponse describes the current transformation job.
type JobResponse struct {
	ID           string          `json:"id,omitempty"`
	Status       string          `json:"status"`
	Request      *CaptureRequest `json:"request,omitempty"`
	Original     string          `json:"original,omitempty"`
	Transformed  string          `json:"transformed,omitempty"`
	ErrorKind    string          `json:"errorKind,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	StartedAt    string          `json:"startedAt,omitempty"`
	FinishedAt   string          `json:"finishedAt,omitempty"`
	ElapsedMs    int64           `json:"elapsedMs,omitempty"`
}

// MapCenter is the initial map position.
type MapCenter struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
}

// CaptureSize is the fixed still-image size.
type CaptureSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BootstrapResponse carries everything the page needs to mount the map.
type BootstrapResponse struct {
	ScriptURL  string      `json:"scriptUrl,omitempty"`
	Libraries  []string    `json:"libraries,omitempty"`
	Callback   string      `json:"callback,omitempty"`
	Center     MapCenter   `json:"center"`
	InitialPOV POV         `json:"initialPov"`
	Capture    CaptureSize `json:"capture"`
	Error      string      `json:"error,omitempty"`
	ErrorKind  string      `json:"errorKind,omitempty"`
}

// CheckResult mirrors a preflight result.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse aggregates service runtime information.
type StatusResponse struct {
	Running              bool          `json:"running"`
	PID                  int           `json:"pid"`
	StartedAt            string        `json:"startedAt,omitempty"`
	LockFilePath         string        `json:"lockFilePath"`
	MapsConfigured       bool          `json:"mapsConfigured"`
	GenerationConfigured bool          `json:"generationConfigured"`
	Model                string        `json:"model,omitempty"`
	View                 ViewResponse  `json:"view"`
	Job                  JobResponse   `json:"job"`
	Checks               []CheckResult `json:"checks,omitempty"`
}

// LocationRequest is posted when the user clicks the map.
type LocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ViewEventRequest forwards a panorama notification from the page.
type ViewEventRequest struct {
	Event    string  `json:"event"`
	PanoID   string  `json:"panoId,omitempty"`
	Position *LatLng `json:"position,omitempty"`
	POV      *POV    `json:"pov,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
