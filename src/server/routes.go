package server

import (
	"errors"
	"net/http"

	"shopfront/src/directors"
	"shopfront/src/engine"
	"shopfront/src/models"

	"github.com/gorilla/mux"
)

const (
	itemPath      = "/items/{item_id}"
	accessoryPath = "/accessories/{accessory_id}"
)

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", s.GetRoot).Methods("GET")
	router.HandleFunc("/healthz", s.GetHealth).Methods("GET")

	router.HandleFunc(itemPath, s.GetItem).Methods("GET")
	router.HandleFunc(itemPath, s.PutItem).Methods("PUT")

	router.HandleFunc("/accessories", s.GetAccessories).Methods("GET")
	router.HandleFunc("/accessories", s.requireAuth(s.PostAccessory)).Methods("POST")
	router.HandleFunc(accessoryPath, s.GetAccessory).Methods("GET")
	router.HandleFunc(accessoryPath, s.requireAuth(s.PutAccessory)).Methods("PUT")
	router.HandleFunc(accessoryPath, s.requireAuth(s.DeleteAccessory)).Methods("DELETE")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errMethodNotAllowed)
	})

	return router
}

func (s *Server) GetRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"Hello": "World!"})
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.services.AccessoryService.CountAccessories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"storage_engine": s.config.StorageEngine,
		"accessories":    n,
	})
}

func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ve := models.ParseIntParam("path", "item_id", mux.Vars(r)["item_id"])
	if ve != nil {
		s.writeError(w, r, ve)
		return
	}

	var q *string
	if values, ok := r.URL.Query()["q"]; ok && len(values) > 0 {
		q = &values[0]
	}

	writeJSON(w, http.StatusOK, s.services.ItemService.ReadItem(itemID, q))
}

func (s *Server) PutItem(w http.ResponseWriter, r *http.Request) {
	itemID, pathErr := models.ParseIntParam("path", "item_id", mux.Vars(r)["item_id"])

	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	item, bodyErr := models.DecodeItem(body)
	if ve := models.JoinValidationErrors(pathErr, bodyErr); ve != nil {
		s.writeError(w, r, ve)
		return
	}

	writeJSON(w, http.StatusOK, s.services.ItemService.UpdateItem(itemID, item))
}

func (s *Server) GetAccessories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := directors.AccessoryFilter{Name: query.Get("name")}
	if raw, ok := query["in_stock"]; ok && len(raw) > 0 {
		inStock, ve := models.ParseBoolParam("query", "in_stock", raw[0])
		if ve != nil {
			s.writeError(w, r, ve)
			return
		}
		filter.InStock = &inStock
	}

	accessories, err := s.services.AccessoryService.ListAccessories(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accessories": accessories})
}

func (s *Server) GetAccessory(w http.ResponseWriter, r *http.Request) {
	id, ve := models.ParseIntParam("path", "accessory_id", mux.Vars(r)["accessory_id"])
	if ve != nil {
		s.writeError(w, r, ve)
		return
	}

	acc, err := s.services.AccessoryService.GetAccessory(r.Context(), id)
	if errors.Is(err, engine.ErrAccessoryNotFound) {
		s.writeError(w, r, errAccessoryNotFoundOnGet)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) PostAccessory(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, ve := models.DecodeAccessoryInput(body)
	if ve != nil {
		s.writeError(w, r, ve)
		return
	}

	acc, err := s.services.AccessoryService.AddAccessory(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) PutAccessory(w http.ResponseWriter, r *http.Request) {
	id, pathErr := models.ParseIntParam("path", "accessory_id", mux.Vars(r)["accessory_id"])

	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, bodyErr := models.DecodeAccessoryInput(body)
	if ve := models.JoinValidationErrors(pathErr, bodyErr); ve != nil {
		s.writeError(w, r, ve)
		return
	}

	acc, err := s.services.AccessoryService.UpdateAccessory(r.Context(), id, in)
	if errors.Is(err, engine.ErrAccessoryNotFound) {
		s.writeError(w, r, errAccessoryNotFoundOnUpdate)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accessory_name": acc.Name,
		"accessory_id":   acc.ID,
	})
}

func (s *Server) DeleteAccessory(w http.ResponseWriter, r *http.Request) {
	id, ve := models.ParseIntParam("path", "accessory_id", mux.Vars(r)["accessory_id"])
	if ve != nil {
		s.writeError(w, r, ve)
		return
	}

	err := s.services.AccessoryService.DeleteAccessory(r.Context(), id)
	if errors.Is(err, engine.ErrAccessoryNotFound) {
		s.writeError(w, r, errAccessoryNotFoundOnDelete)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "deleted"})
}
