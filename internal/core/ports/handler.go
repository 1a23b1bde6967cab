package ports

import "net/http"

//go:generate mockgen -source=handler.go -destination=mocks/mock_handler.go -package=mocks

// RequestHandler is the contract the entry attribute must satisfy.
// Unlike http.Handler it returns an error, so delegation failures can be
// turned into a structured response by the serving layer instead of a
// half-written body.
type RequestHandler interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

// RequestHandlerFunc adapts a function to the RequestHandler interface.
type RequestHandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Serve calls f(w, r).
func (f RequestHandlerFunc) Serve(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// Dispatcher serves one request through the currently loaded entry
// handler. Implementations resolve the handler fresh per call, under a
// read hold of the reload lock, so requests never observe a half-reloaded
// module table.
type Dispatcher interface {
	Dispatch(w http.ResponseWriter, r *http.Request) error
}
