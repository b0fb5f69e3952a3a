package handler

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/maharish/dinetrack/internal/domain/menu"
)

type menuItemPayload struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImagePath   string  `json:"image_path"`
	Available   bool    `json:"available"`
}

type menuItemStatusPayload struct {
	menuItemPayload
	IsPopular      bool `json:"isPopular"`
	IsTodaySpecial bool `json:"isTodaySpecial"`
}

type dishPayload struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImagePath   string  `json:"image_path"`
}

type updateMenuRequest struct {
	MenuItems []menuItemPayload `json:"menuitems"`
}

type toggleRequest struct {
	Name string `json:"name"`
}

func (h *Handler) listMenuItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListAvailable(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]menuItemPayload, len(items))
	for i, item := range items {
		out[i] = h.toMenuItemPayload(item)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) listMenuItemsWithStatus(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.ListWithStatus(r.Context())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	out := make([]menuItemStatusPayload, len(items))
	for i, item := range items {
		out[i] = menuItemStatusPayload{
			menuItemPayload: h.toMenuItemPayload(item.Item),
			IsPopular:       item.IsPopular,
			IsTodaySpecial:  item.IsTodaySpecial,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// addMenuItem accepts a multipart form with the item fields and an optional
// image file, saved under the configured image directory as <name><ext>.
func (h *Handler) addMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil || price.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid price")
		return
	}

	available := true
	if v := r.FormValue("available"); v != "" {
		available, err = strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid available flag")
			return
		}
	}

	imagePath, err := h.saveImage(r, name)
	if err != nil {
		zctx.From(r.Context()).Error("save dish image", zap.String("name", name), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	item := menu.Item{
		Name:        name,
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
		Price:       price,
		ImagePath:   imagePath,
		Available:   available,
	}
	if err := h.menu.Add(r.Context(), item); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Menu item added successfully"})
}

// saveImage stores the uploaded "image" file, if any, and returns the file
// name it was saved under.
func (h *Handler) saveImage(r *http.Request, name string) (string, error) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	// Base strips any path separators from the item name so the stored
	// name always matches the file written under the image directory.
	fileName := filepath.Base(name + filepath.Ext(header.Filename))
	dst, err := os.Create(filepath.Join(h.imageDir, fileName))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return fileName, nil
}

func (h *Handler) updateMenuItems(w http.ResponseWriter, r *http.Request) {
	var req updateMenuRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]menu.Item, len(req.MenuItems))
	for i, p := range req.MenuItems {
		items[i] = menu.Item{
			Name:        p.Name,
			Type:        p.Type,
			Description: p.Description,
			Price:       decimal.NewFromFloat(p.Price),
			Available:   p.Available,
		}
	}

	if err := h.menu.BulkUpdate(r.Context(), items); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Menu updated successfully"})
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := h.menu.Delete(r.Context(), r.PathValue("name")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Menu item deleted successfully"})
}

func (h *Handler) toggleSpecial(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	marked, err := h.menu.ToggleSpecial(r.Context(), req.Name)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	msg := "Item removed from Today's Special"
	if marked {
		msg = "Item marked as Today's Special"
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (h *Handler) togglePopular(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	marked, err := h.menu.TogglePopular(r.Context(), req.Name)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	msg := "Item removed from popular items"
	if marked {
		msg = "Item marked as popular"
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (h *Handler) getDish(w http.ResponseWriter, r *http.Request) {
	d, err := h.menu.FindDish(r.Context(), r.PathValue("name"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dishPayload{
		Name:        d.Name,
		Type:        d.Type,
		Description: d.Description,
		Price:       d.Price.InexactFloat64(),
		ImagePath:   h.imageURL(d.ImagePath),
	})
}

func (h *Handler) toMenuItemPayload(item menu.Item) menuItemPayload {
	return menuItemPayload{
		Name:        item.Name,
		Type:        item.Type,
		Description: item.Description,
		Price:       item.Price.InexactFloat64(),
		ImagePath:   h.imageURL(item.ImagePath),
		Available:   item.Available,
	}
}

func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" {
		return path
	}
	return h.imageBaseURL + "/" + path
}
