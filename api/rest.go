package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"skin-analysis-service/catalog"
	"skin-analysis-service/data"
	"skin-analysis-service/logging"
	"skin-analysis-service/scraper"
	"skin-analysis-service/service"
	"skin-analysis-service/vision"
)

// Analyzer classifies an uploaded photo.
type Analyzer interface {
	Analyze(ctx context.Context, data []byte) (*service.Analysis, error)
}

// Recommender finds products for skin issues.
type Recommender interface {
	Recommend(ctx context.Context, labels []string, count int, minRating *float64) map[string][]scraper.Product
	ProductsFor(ctx context.Context, label string, count int, minRating *float64) ([]scraper.Product, error)
}

// History reads stored analyses.
type History interface {
	FindByID(ctx context.Context, id string) (*data.AnalysisRecord, error)
	FindAll(ctx context.Context, pagination data.Pagination) ([]data.AnalysisRecord, error)
}

const (
	msgUploadImage = "Lütfen bir resim dosyası yükleyin."
	msgNoFace      = "Fotoğrafta insan yüzü algılanamadı."
	msgBadImage    = "Görsel okunamadı."
)

type productParams struct {
	ProductCount int      `query:"product_count" validate:"gte=1,lte=10"`
	MinRating    *float64 `query:"min_rating" validate:"omitempty,gte=0,lte=5"`
}

type AnalysisResponse struct {
	DetectedSkinIssues []string `json:"detected_skin_issues"`
}

type AnalysisAndRecommendationResponse struct {
	DetectedSkinIssues  []string                     `json:"detected_skin_issues"`
	RecommendedProducts map[string][]scraper.Product `json:"recommended_products"`
}

type SkinIssueWithProductsResponse struct {
	Info     catalog.Info      `json:"info"`
	Products []scraper.Product `json:"products"`
}

type FileUploadResponse struct {
	AnalysisID        string            `json:"analysis_id"`
	AnalysisTimestamp time.Time         `json:"analysis_timestamp"`
	Results           []service.Finding `json:"results"`
}

type AnalysisRecordResponse struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Body      json.RawMessage `json:"body"`
	CreatedAt time.Time       `json:"created_at"`
}

// Handlers serves the REST API. History may be nil when no database is
// configured.
type Handlers struct {
	analysis  Analyzer
	recommend Recommender
	history   History
	validate  *validator.Validate
}

func NewHandlers(analysis Analyzer, recommend Recommender, history History) *Handlers {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return &Handlers{
		analysis:  analysis,
		recommend: recommend,
		history:   history,
		validate:  v,
	}
}

func (h *Handlers) Register(app *fiber.App) {
	app.Get("/", h.Root)
	app.Get("/health", h.Health)

	app.Post("/analyze", h.Analyze)
	app.Post("/analyze-and-recommend", h.AnalyzeAndRecommend)
	app.Post("/analyze-skin", h.AnalyzeSkin)
	app.Get("/recommend", h.Recommend)

	app.Get("/skin-issue/products/:issue_type", h.SkinIssueProducts)
	app.Get("/skin-issue/info/:issue_type", h.SkinIssueInfo)
	app.Get("/skin-issue/:issue_type", h.SkinIssue)

	app.Get("/analyses", h.ListAnalyses)
	app.Get("/analyses/:id", h.GetAnalysis)
}

func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome! See the README for the API reference."})
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handlers) Analyze(c *fiber.Ctx) error {
	a, err := h.analyzeUpload(c)
	if err != nil {
		return err
	}
	return c.JSON(AnalysisResponse{DetectedSkinIssues: a.Detected})
}

func (h *Handlers) AnalyzeAndRecommend(c *fiber.Ctx) error {
	q, err := h.productQuery(c, 3)
	if err != nil {
		return err
	}
	a, err := h.analyzeUpload(c)
	if err != nil {
		return err
	}

	products := h.recommend.Recommend(c.UserContext(), a.Detected, q.ProductCount, q.MinRating)
	return c.JSON(AnalysisAndRecommendationResponse{
		DetectedSkinIssues:  a.Detected,
		RecommendedProducts: products,
	})
}

// AnalyzeSkin returns the detected labels expanded with their descriptions.
func (h *Handlers) AnalyzeSkin(c *fiber.Ctx) error {
	if raw := c.FormValue("metadata"); raw != "" {
		metadata := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid metadata format")
		}
	}

	a, err := h.analyzeUpload(c)
	if err != nil {
		return err
	}

	logging.Debug().
		Str("analysis_id", a.ID.String()).
		Str("user_id", c.FormValue("user_id")).
		Msg("skin analysed")

	return c.JSON(FileUploadResponse{
		AnalysisID:        a.ID.String(),
		AnalysisTimestamp: a.Timestamp,
		Results:           a.Findings(),
	})
}

func (h *Handlers) Recommend(c *fiber.Ctx) error {
	issue := c.Query("skin_issue")
	if issue == "" {
		return fiber.NewError(fiber.StatusBadRequest, "skin_issue is required")
	}
	if !catalog.IsLabel(issue) && issue != catalog.NoIssueDetected {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("Invalid skin issue. Must be one of: %v", catalog.Labels))
	}
	q, err := h.productQuery(c, 3)
	if err != nil {
		return err
	}

	return c.JSON(h.recommend.Recommend(c.UserContext(), []string{issue}, q.ProductCount, q.MinRating))
}

func (h *Handlers) SkinIssueProducts(c *fiber.Ctx) error {
	issue := c.Params("issue_type")
	if !catalog.IsLabel(issue) {
		return invalidIssue()
	}
	q, err := h.productQuery(c, 3)
	if err != nil {
		return err
	}

	return c.JSON(h.products(c, issue, q))
}

func (h *Handlers) SkinIssueInfo(c *fiber.Ctx) error {
	issue := c.Params("issue_type")
	info, ok := catalog.LookupInfo(issue)
	if !ok {
		return infoNotFound(issue)
	}
	return c.JSON(info)
}

// SkinIssue combines the info page of an issue with product suggestions.
func (h *Handlers) SkinIssue(c *fiber.Ctx) error {
	issue := c.Params("issue_type")
	if !catalog.IsLabel(issue) {
		return invalidIssue()
	}
	info, ok := catalog.LookupInfo(issue)
	if !ok {
		return infoNotFound(issue)
	}
	q, err := h.productQuery(c, 5)
	if err != nil {
		return err
	}

	return c.JSON(SkinIssueWithProductsResponse{Info: info, Products: h.products(c, issue, q)})
}

func (h *Handlers) GetAnalysis(c *fiber.Ctx) error {
	if h.history == nil {
		return historyDisabled()
	}
	rec, err := h.history.FindByID(c.UserContext(), c.Params("id"))
	if errors.Is(err, data.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(recordResponse(*rec))
}

func (h *Handlers) ListAnalyses(c *fiber.Ctx) error {
	if h.history == nil {
		return historyDisabled()
	}
	var p data.Pagination
	if err := c.QueryParser(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid pagination")
	}
	p = p.Normalize()

	records, err := h.history.FindAll(c.UserContext(), p)
	if err != nil {
		return err
	}
	items := make([]AnalysisRecordResponse, 0, len(records))
	for _, r := range records {
		items = append(items, recordResponse(r))
	}
	return c.JSON(fiber.Map{
		"page":      p.Page,
		"page_size": p.PageSize,
		"items":     items,
	})
}

// products never fails the request: a failed search is logged and served as
// an empty list.
func (h *Handlers) products(c *fiber.Ctx, issue string, q productParams) []scraper.Product {
	products, err := h.recommend.ProductsFor(c.UserContext(), issue, q.ProductCount, q.MinRating)
	if err != nil {
		logging.Error().Err(err).Str("issue", issue).Msg("product lookup failed")
		return []scraper.Product{}
	}
	return products
}

func (h *Handlers) analyzeUpload(c *fiber.Ctx) (*service.Analysis, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, msgUploadImage)
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return nil, fiber.NewError(fiber.StatusBadRequest, msgUploadImage)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	a, err := h.analysis.Analyze(c.UserContext(), buf)
	switch {
	case errors.Is(err, vision.ErrNoFace):
		return nil, fiber.NewError(fiber.StatusBadRequest, msgNoFace)
	case errors.Is(err, vision.ErrInvalidImage):
		return nil, fiber.NewError(fiber.StatusBadRequest, msgBadImage)
	case err != nil:
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Model hatası: "+err.Error())
	}
	return a, nil
}

// productQuery reads product_count and min_rating from the query string,
// falling back to form fields for product_count.
func (h *Handlers) productQuery(c *fiber.Ctx, defaultCount int) (productParams, error) {
	q := productParams{ProductCount: defaultCount}

	if v := c.Query("product_count", c.FormValue("product_count")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "product_count must be an integer")
		}
		q.ProductCount = n
	}
	if v := c.Query("min_rating"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return q, fiber.NewError(fiber.StatusBadRequest, "min_rating must be a number")
		}
		q.MinRating = &r
	}

	if err := h.validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}
	return q, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}

func recordResponse(r data.AnalysisRecord) AnalysisRecordResponse {
	body := json.RawMessage(r.Body)
	if !json.Valid(body) {
		body, _ = json.Marshal(r.Body)
	}
	return AnalysisRecordResponse{
		ID:        r.ID.String(),
		Status:    r.Status,
		Body:      body,
		CreatedAt: r.CreatedAt,
	}
}

func invalidIssue() error {
	return fiber.NewError(fiber.StatusBadRequest,
		fmt.Sprintf("Geçersiz cilt sorunu. Seçenekler: %v", catalog.Labels))
}

func infoNotFound(issue string) error {
	return fiber.NewError(fiber.StatusNotFound, issue+" için bilgi bulunamadı")
}

func historyDisabled() error {
	return fiber.NewError(fiber.StatusServiceUnavailable, "analysis history is not configured")
}
