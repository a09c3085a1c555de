package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/creator-marketplace/internal/application"
	"github.com/oksasatya/creator-marketplace/internal/domain/entity"
	"github.com/oksasatya/creator-marketplace/pkg/apperror"
	"github.com/oksasatya/creator-marketplace/pkg/response"
	"github.com/oksasatya/creator-marketplace/pkg/upload"
)

const photosField = "photos"

type ListingHandler struct {
	Svc *application.ListingService
	R   *response.Responder
}

func NewListingHandler(svc *application.ListingService, r *response.Responder) *ListingHandler {
	return &ListingHandler{Svc: svc, R: r}
}

// Create POST /api/listings (multipart: title, category, condition, story, price, photos[])
func (h *ListingHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.R.Fail(c, apperror.Validation("photos", "submit the listing as a multipart form"))
		return
	}
	in := application.CreateListingInput{
		Title:     c.PostForm("title"),
		Category:  c.PostForm("category"),
		Condition: c.PostForm("condition"),
		Story:     c.PostForm("story"),
		Price:     c.PostForm("price"),
	}
	for _, fh := range form.File[photosField] {
		in.Photos = append(in.Photos, upload.FromMultipart(fh))
	}

	res, err := h.Svc.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	rejected := res.PhotosRejected
	if rejected == nil {
		rejected = []application.PhotoRejection{}
	}
	response.Success(c, http.StatusCreated, createListingView{
		Listing:        toListingView(res.Listing, true),
		PhotosStored:   res.PhotosStored,
		PhotosRejected: rejected,
		SyncStatus:     string(res.SyncStatus),
	}, "listing submitted for review", nil)
}

// Get GET /api/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	v := viewer(c)
	l, err := h.Svc.Get(c.Request.Context(), c.Param("id"), v)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	// only the owner or an admin can see a listing that is not live
	private := l.Status != entity.ListingActive || (v != nil && v.IsAdmin())
	response.Success(c, http.StatusOK, toListingView(l, private), "listing", nil)
}

// Mine GET /api/listings/mine?status=
func (h *ListingHandler) Mine(c *gin.Context) {
	status := entity.ListingStatus(c.Query("status"))
	switch status {
	case "", entity.ListingPending, entity.ListingActive, entity.ListingRejected, entity.ListingRemoved:
	default:
		h.R.Fail(c, apperror.Validation("status", "unknown listing status"))
		return
	}
	out, err := h.Svc.ListMine(c.Request.Context(), actor(c).UserID, status)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toListingViews(out, true), "listings", map[string]any{"count": len(out)})
}

// Delete DELETE /api/listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), actor(c)); err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "listing deleted", nil)
}

// Search GET /api/listings/search?q=&size=
func (h *ListingHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	docs, err := h.Svc.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.R.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "search results", map[string]any{"count": len(docs)})
}
