package catalog_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"wildcafe-pos/internal/apperr"
	"wildcafe-pos/internal/catalog"
	"wildcafe-pos/internal/logger"
	"wildcafe-pos/internal/models"
	"wildcafe-pos/internal/utils"
)

type Handler struct {
	Service *catalog.Service
	Logger  *logger.Logger
}

func NewHandler(service *catalog.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.ListProducts)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.AddProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Post("/", h.AddCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.ListTables)
		r.Post("/", h.AddTable)
		r.Put("/{id}", h.UpdateTable)
		r.Delete("/{id}", h.DeleteTable)
	})
}

// ---------------- PRODUCTS ----------------

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.FetchMenu(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d products", len(products)), products)
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if !h.decode(w, r, "AddProduct", &in) {
		return
	}
	p, err := h.Service.AddProduct(r.Context(), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Product added.", p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in models.ProductInput
	if !h.decode(w, r, "UpdateProduct", &in) {
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), id, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Product updated.", p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Product deleted.", nil)
}

// ---------------- CATEGORIES ----------------

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d categories", len(categories)), categories)
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var in models.NameInput
	if !h.decode(w, r, "AddCategory", &in) {
		return
	}
	c, err := h.Service.AddCategory(r.Context(), in.Name)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Category added.", c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in models.NameInput
	if !h.decode(w, r, "UpdateCategory", &in) {
		return
	}
	c, err := h.Service.UpdateCategory(r.Context(), id, in.Name)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category updated.", c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteCategory(r.Context(), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Category deleted.", nil)
}

// ---------------- TABLES ----------------

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	desks, err := h.Service.ListTables(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, fmt.Sprintf("%d tables", len(desks)), desks)
}

func (h *Handler) AddTable(w http.ResponseWriter, r *http.Request) {
	var in models.NameInput
	if !h.decode(w, r, "AddTable", &in) {
		return
	}
	d, err := h.Service.AddTable(r.Context(), in.Name)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Table added.", d)
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var in models.NameInput
	if !h.decode(w, r, "UpdateTable", &in) {
		return
	}
	d, err := h.Service.UpdateTable(r.Context(), id, in.Name)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Table updated.", d)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteTable(r.Context(), id); err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Table deleted.", nil)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, op string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.Logger.Error("API", fmt.Sprintf("%s: failed to decode request body: %v", op, err))
		utils.WriteError(w, apperr.Validation(op, "Invalid request body."))
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, apperr.Validation("pathID", "Invalid id %q.", raw))
		return 0, false
	}
	return id, true
}
