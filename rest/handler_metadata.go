package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mohitkumar/flower/logger"
	"github.com/mohitkumar/flower/model"
	"github.com/mohitkumar/flower/persistence"
)

func (s *Server) HandleSaveFlow(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var def model.FlowDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid flow definition")
		return
	}
	if err := s.flows.Save(def); err != nil {
		logger.Error("error saving flow", zap.String("name", def.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, "saved")
}

func (s *Server) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	def, err := s.flows.Get(name)
	if err != nil {
		var notFound persistence.NotFoundError
		if errors.As(err, &notFound) {
			respondWithError(w, http.StatusNotFound, "flow does not exist")
			return
		}
		logger.Error("error reading flow", zap.String("name", name), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}
