package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/app"
)

// importFormField is the multipart field read by POST /quotes/import.
const importFormField = "file"

// exportTimeLayout stamps the suggested export filename, in UTC.
const exportTimeLayout = "20060102T150405Z"

// QuoteHandler handles quote-related HTTP endpoints.
type QuoteHandler struct {
	service *app.QuoteService
	now     func() time.Time
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		now:     time.Now,
	}
}

// exportFilename returns quotes-<UTC timestamp>.json.
func exportFilename(t time.Time) string {
	return "quotes-" + t.UTC().Format(exportTimeLayout) + ".json"
}

// ListQuotes handles GET /api/v1/quotes
// Returns one page of the list, optionally filtered by category. Each item
// carries its index in the full list, which PUT and DELETE address.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param category query string false "Category filter; all or empty for every quote"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	cursor, err := req.DecodeCursor()
	if err != nil && !errors.Is(err, dto.ErrNoCursor) {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, "invalid cursor")
		return
	}

	items := dto.NewQuoteResponses(h.service.List(req.Category))
	page := dto.Paginate(items, cursor, req.GetLimit(), func(q dto.QuoteResponse) int { return q.Index })

	c.JSON(http.StatusOK, page)
}

// AddQuote handles POST /api/v1/quotes
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param body body dto.QuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	added, err := h.service.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(added.Index, added.Quote))
}

// EditQuote handles PUT /api/v1/quotes/:index
//
// @Summary Replace the quote at an index
// @Tags quotes
// @Accept json
// @Produce json
// @Param index path int true "Position in the full list"
// @Param body body dto.QuoteRequest true "Quote"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{index} [put]
func (h *QuoteHandler) EditQuote(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	var req dto.QuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	q, err := h.service.EditAt(c.Request.Context(), index, req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(index, q))
}

// RemoveQuote handles DELETE /api/v1/quotes/:index
// Later quotes shift down by one.
//
// @Summary Remove the quote at an index
// @Tags quotes
// @Produce json
// @Param index path int true "Position in the full list"
// @Success 200 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{index} [delete]
func (h *QuoteHandler) RemoveQuote(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}

	q, err := h.service.RemoveAt(c.Request.Context(), index)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(index, q))
}

// GetRandomQuote handles GET /api/v1/quotes/random
// Without a category the last filter used is applied again.
//
// @Summary Get a random quote
// @Tags quotes
// @Produce json
// @Param category query string false "Category filter"
// @Success 200 {object} dto.RandomQuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) GetRandomQuote(c *gin.Context) {
	pick, err := h.service.ShowRandom(c.Request.Context(), c.Query("category"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.RandomQuoteResponse{
		Quote:    dto.NewQuoteResponse(-1, pick.Quote),
		Category: pick.Category,
	})
}

// GetLastQuote handles GET /api/v1/quotes/last
//
// @Summary Get the quote shown most recently
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.RandomQuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/last [get]
func (h *QuoteHandler) GetLastQuote(c *gin.Context) {
	ctx := c.Request.Context()

	q, ok, err := h.service.LastShown(ctx)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if !ok {
		dto.RespondWithCode(c, dto.ErrorCodeNotFound, "no quote has been shown yet")
		return
	}

	c.JSON(http.StatusOK, dto.RandomQuoteResponse{
		Quote:    dto.NewQuoteResponse(-1, q),
		Category: h.service.LastFilter(ctx),
	})
}

// ListCategories handles GET /api/v1/categories
//
// @Summary List distinct categories
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/categories [get]
func (h *QuoteHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{Categories: h.service.Categories()})
}

// ImportQuotes handles POST /api/v1/quotes/import
// Accepts the JSON array either as the raw body or as a multipart "file".
//
// @Summary Import quotes
// @Tags quotes
// @Accept json,mpfd
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	data, err := readImport(c)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			dto.HandleError(c, err)
			return
		}

		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())

		return
	}

	res, err := h.service.Import(c.Request.Context(), data)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ImportResponse{
		Imported: res.Imported,
		Skipped:  res.Skipped,
		Total:    h.service.Len(),
	})
}

// ExportQuotes handles GET /api/v1/quotes/export
//
// @Summary Export every quote as a JSON file
// @Tags quotes
// @Produce json
// @Success 200 {array} object
// @Router /api/v1/quotes/export [get]
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	data, err := h.service.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exportFilename(h.now())+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// PushQuotes handles POST /api/v1/quotes/push
// Publishes every local quote to the remote feed.
//
// @Summary Push every quote to the remote feed
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.PushResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes/push [post]
func (h *QuoteHandler) PushQuotes(c *gin.Context) {
	res, err := h.service.PushAll(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPushResponse(res))
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	rg.GET("/categories", h.ListCategories)

	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.GetRandomQuote)
	quotes.GET("/last", h.GetLastQuote)
	quotes.GET("/export", h.ExportQuotes)
	quotes.POST("/import", h.ImportQuotes)
	quotes.POST("/push", h.PushQuotes)
	quotes.PUT("/:index", h.EditQuote)
	quotes.DELETE("/:index", h.RemoveQuote)
}

// indexParam parses the :index path parameter, writing a 400 on failure.
func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, "index must be an integer")
		return 0, false
	}

	return index, true
}

func readImport(c *gin.Context) ([]byte, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}

		if len(data) == 0 {
			return nil, errors.New("request body is empty")
		}

		return data, nil
	}

	fh, err := c.FormFile(importFormField)
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
