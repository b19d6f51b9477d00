package client

import "net/http"

//go:generate mockgen -source=interfaces.go -destination=./client_mock.go -package=client

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
