package product

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"store-api/internal/apperr"
	"store-api/internal/respond"
)

const (
	maxJSONBodyBytes = 1 << 20
	slugTakenMessage = "product with this slug already exists"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id string, p Product) (Product, bool, error)
	Delete(ctx context.Context, id string) (Product, bool, error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
}

// ImageUploader hosts product images. Hosted reports whether a source
// already points at the uploader's own storage.
type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
	Hosted(imageSource string) bool
}

type Handler struct {
	store    Store
	uploader ImageUploader
}

// NewHandler builds the catalog handler. uploader may be nil, in which
// case image sources are stored as given.
func NewHandler(store Store, uploader ImageUploader) *Handler {
	return &Handler{store: store, uploader: uploader}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.List(r.Context())
	if err != nil {
		respond.Error(w, apperr.Internal("error retrieving products", err))
		return
	}

	message := "products retrieved successfully"
	if len(products) == 0 {
		message = "no products found"
	}
	respond.JSON(w, http.StatusOK, message, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	p, found, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, apperr.Internal("error retrieving product", err))
		return
	}
	if !found {
		respond.Error(w, apperr.NotFound("product not found"))
		return
	}

	respond.JSON(w, http.StatusOK, "product retrieved successfully", map[string]any{"product": p})
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := productFromRequest(w, r)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.ensureSlugFree(r.Context(), p.Slug, ""); err != nil {
		respond.Error(w, err)
		return
	}
	if !h.hostImage(w, r, &p, "") {
		return
	}

	created, err := h.store.Create(r.Context(), p)
	if err != nil {
		respond.Error(w, storeError("error creating product", err))
		return
	}

	respond.JSON(w, http.StatusCreated, "product created successfully", map[string]any{"product": created})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	p, err := productFromRequest(w, r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	existing, found, err := h.store.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, apperr.Internal("error updating product", err))
		return
	}
	if !found {
		respond.Error(w, apperr.NotFound("product not found"))
		return
	}
	if err := h.ensureSlugFree(r.Context(), p.Slug, id); err != nil {
		respond.Error(w, err)
		return
	}
	if !h.hostImage(w, r, &p, existing.Image) {
		return
	}

	updated, found, err := h.store.Update(r.Context(), id, p)
	if err != nil {
		respond.Error(w, storeError("error updating product", err))
		return
	}
	if !found {
		respond.Error(w, apperr.NotFound("product not found"))
		return
	}

	respond.JSON(w, http.StatusOK, "product updated successfully", map[string]any{"product": updated})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Error(w, err)
		return
	}

	deleted, found, err := h.store.Delete(r.Context(), id)
	if err != nil {
		respond.Error(w, apperr.Internal("error deleting product", err))
		return
	}
	if !found {
		respond.Error(w, apperr.NotFound("product not found"))
		return
	}

	respond.JSON(w, http.StatusOK, "product deleted successfully", map[string]any{"product": deleted})
}

// productFromRequest decodes and validates the body and derives the slug.
func productFromRequest(w http.ResponseWriter, r *http.Request) (Product, error) {
	var input ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		return Product{}, err
	}

	p := Product{
		Title:       strings.TrimSpace(input.Title),
		Slug:        slug.Make(input.Title),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    strings.TrimSpace(input.Category),
		Brand:       strings.TrimSpace(input.Brand),
		Quantity:    input.Quantity,
		Sold:        input.Sold,
		Image:       strings.TrimSpace(input.Image),
		Color:       strings.TrimSpace(input.Color),
	}
	if p.Slug == "" {
		return Product{}, apperr.Validation("title must contain letters or digits")
	}
	return p, nil
}

func (h *Handler) ensureSlugFree(ctx context.Context, productSlug, exceptID string) error {
	taken, err := h.store.SlugTaken(ctx, productSlug, exceptID)
	if err != nil {
		return apperr.Internal("error checking product slug", err)
	}
	if taken {
		return apperr.Conflict(slugTakenMessage)
	}
	return nil
}

// hostImage replaces p.Image with the uploader's URL. Images that are
// unchanged or already hosted are left alone. It writes the response
// itself on failure.
func (h *Handler) hostImage(w http.ResponseWriter, r *http.Request, p *Product, current string) bool {
	if h.uploader == nil || p.Image == current || h.uploader.Hosted(p.Image) {
		return true
	}

	secureURL, err := h.uploader.UploadImage(r.Context(), p.Image)
	if err != nil {
		sentry.CaptureException(err)
		respond.Fail(w, http.StatusBadGateway, "failed to upload image")
		return false
	}
	p.Image = secureURL
	return true
}

func productID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.Validation(id + " is not a valid id")
	}
	return id, nil
}

func storeError(message string, err error) error {
	if errors.Is(err, ErrSlugTaken) {
		return apperr.Conflict(slugTakenMessage)
	}
	return apperr.Internal(message, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperr.Validation("invalid json body")
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return apperr.Validation(strings.ToLower(fieldErrs[0].Field()) + " is invalid")
		}
		return apperr.Validation("invalid product")
	}
	return nil
}
