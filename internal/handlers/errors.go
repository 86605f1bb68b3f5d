package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/repository"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error().Err(err).Int("status", status).Msg(logMsg)
	}

	http.Error(w, userMsg, status)
}

// respondWithLookupError answers 404 with notFoundMsg for missing records
// and 500 for anything else
func respondWithLookupError(w http.ResponseWriter, err error, notFoundMsg, logMsg string) {
	if errors.Is(err, repository.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, notFoundMsg, "", nil)
		return
	}
	respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
}
