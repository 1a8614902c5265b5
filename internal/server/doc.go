// Package server implements the HTTP server for csv-server. It owns the
// allow-list catalog, the /csv/{filename} download route, the operational
// endpoints and the middleware around them.
package server
