package backend

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// compress compresses responses for clients which accept it
func compress(h http.Handler) http.Handler {
	return handlers.CompressHandler(h)
}
