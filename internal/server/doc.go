// Package server hosts the facade HTTP service.
//
// The browser page is a thin renderer: it draws the map and panorama widget
// with the Maps JavaScript API and forwards every viewer notification to the
// service. The service owns the panorama adapter, the single transformation
// job and all outbound calls. A file lock keeps a second instance from
// starting against the same lock directory.
//
// Routes:
//
//	GET    /                page shell
//	GET    /static/...      page assets
//	GET    /api/bootstrap   Maps loader outcome and initial map settings
//	POST   /api/location    map click
//	GET    /api/view        current view and trigger availability
//	POST   /api/view        panorama notification
//	POST   /api/transform   start a job
//	GET    /api/job         current job
//	DELETE /api/job         dismiss a finished job
//	GET    /api/status      runtime status
//	GET    /metrics         Prometheus metrics
package server
