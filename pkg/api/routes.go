package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Single items by pid
	router.HandleFunc("/collections/{coll}/items", h.HandleCreate).Methods("POST")
	router.HandleFunc("/collections/{coll}/items/batch", h.HandleBatchCreate).Methods("POST")
	router.HandleFunc("/collections/{coll}/items/{pid}", h.HandleGetByPID).Methods("GET")
	router.HandleFunc("/collections/{coll}/items/{pid}", h.HandleUpdateByPID).Methods("PATCH")
	router.HandleFunc("/collections/{coll}/items/{pid}", h.HandleDeleteByPID).Methods("DELETE")
	router.HandleFunc("/collections/{coll}/items/{pid}/arrays/{field}", h.HandleArrayAppendByPID).Methods("POST")
	router.HandleFunc("/collections/{coll}/items/{pid}/arrays/{field}", h.HandleArrayRemoveByPID).Methods("DELETE")

	// Attribute-scoped operations
	router.HandleFunc("/collections/{coll}/query", h.HandleQuery).Methods("POST")
	router.HandleFunc("/collections/{coll}/first", h.HandleGetFirst).Methods("POST")
	router.HandleFunc("/collections/{coll}/first", h.HandleUpdateFirst).Methods("PATCH")
	router.HandleFunc("/collections/{coll}/first", h.HandleDeleteFirst).Methods("DELETE")
	router.HandleFunc("/collections/{coll}/arrays/{field}", h.HandleArrayAppendByAttributes).Methods("POST")
	router.HandleFunc("/collections/{coll}/arrays/{field}", h.HandleArrayRemoveByAttributes).Methods("DELETE")

	// Batch operations
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchUpdate).Methods("PATCH")
	router.HandleFunc("/collections/{coll}/batch", h.HandleBatchDelete).Methods("DELETE")

	// Index operations
	router.HandleFunc("/collections/{coll}/indexes", h.HandleGetIndexes).Methods("GET")
	router.HandleFunc("/collections/{coll}/indexes/{field}", h.HandleCreateIndex).Methods("POST")
}
