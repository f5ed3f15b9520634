package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/apierr"
	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
	"github.com/yungbote/hotel-reservation-prediction/internal/serving/predictor"
)

type Predictor interface {
	Predict(ctx context.Context, f predictor.Features) (int, error)
}

// predictRequest is shared by the HTML form and the JSON API. Pointers let
// "required" accept an explicit zero.
type predictRequest struct {
	LeadTime           *int     `form:"lead_time" json:"lead_time" binding:"required"`
	NoOfSpecialRequest *int     `form:"no_of_special_request" json:"no_of_special_request" binding:"required"`
	AvgPricePerRoom    *float64 `form:"avg_price_per_room" json:"avg_price_per_room" binding:"required"`
	ArrivalMonth       *int     `form:"arrival_month" json:"arrival_month" binding:"required"`
	ArrivalDate        *int     `form:"arrival_date" json:"arrival_date" binding:"required"`
	MarketSegmentType  *int     `form:"market_segment_type" json:"market_segment_type" binding:"required"`
	NoOfWeekNights     *int     `form:"no_of_week_nights" json:"no_of_week_nights" binding:"required"`
	NoOfWeekendNights  *int     `form:"no_of_weekend_nights" json:"no_of_weekend_nights" binding:"required"`
	TypeOfMealPlan     *int     `form:"type_of_meal_plan" json:"type_of_meal_plan" binding:"required"`
	RoomTypeReserved   *int     `form:"room_type_reserved" json:"room_type_reserved" binding:"required"`
}

func (r predictRequest) features() predictor.Features {
	return predictor.Features{
		LeadTime:           *r.LeadTime,
		NoOfSpecialRequest: *r.NoOfSpecialRequest,
		AvgPricePerRoom:    *r.AvgPricePerRoom,
		ArrivalMonth:       *r.ArrivalMonth,
		ArrivalDate:        *r.ArrivalDate,
		MarketSegmentType:  *r.MarketSegmentType,
		NoOfWeekNights:     *r.NoOfWeekNights,
		NoOfWeekendNights:  *r.NoOfWeekendNights,
		TypeOfMealPlan:     *r.TypeOfMealPlan,
		RoomTypeReserved:   *r.RoomTypeReserved,
	}
}

type PredictResponse struct {
	Prediction int `json:"prediction"`
}

type Handler struct {
	log  *logger.Logger
	pred Predictor
}

func NewHandler(log *logger.Logger, pred Predictor) *Handler {
	return &Handler{log: log.With("handler", "PredictHandler"), pred: pred}
}

// bindError turns binding failures into a client error.
func bindError(err error) *apierr.Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierr.New(http.StatusRequestEntityTooLarge, apierr.CodeBodyTooLarge, err)
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		var missing []string
		for _, fe := range verrs {
			missing = append(missing, fieldName(fe.Field()))
		}
		return apierr.BadRequest(fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")))
	}
	return apierr.BadRequest(fmt.Errorf("invalid input: %w", err))
}

func fieldName(goName string) string {
	var b strings.Builder
	for i, r := range goName {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (h *Handler) predict(ctx context.Context, req predictRequest) (int, *apierr.Error) {
	f := req.features()
	if err := f.Validate(); err != nil {
		return 0, apierr.BadRequest(err)
	}
	label, err := h.pred.Predict(ctx, f)
	if err != nil {
		h.log.Error("prediction failed", "error", err)
		return 0, apierr.New(http.StatusInternalServerError, apierr.CodePredictFailed, err)
	}
	return label, nil
}

// GET /
func (h *Handler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, indexTemplate, newIndexView(nil))
}

// POST /
func (h *Handler) SubmitForm(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBind(&req); err != nil {
		ae := bindError(err)
		view := newIndexView(c.Request.PostForm)
		view.Error = ae.Error()
		c.HTML(ae.Status, indexTemplate, view)
		return
	}
	view := newIndexView(c.Request.PostForm)
	label, ae := h.predict(c.Request.Context(), req)
	if ae != nil {
		view.Error = ae.Error()
		if ae.Status >= 500 {
			view.Error = "prediction failed, please retry"
		}
		c.HTML(ae.Status, indexTemplate, view)
		return
	}
	view.HasPrediction = true
	view.Prediction = label
	c.HTML(http.StatusOK, indexTemplate, view)
}

// POST /api/predict
func (h *Handler) PredictJSON(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, bindError(err))
		return
	}
	label, ae := h.predict(c.Request.Context(), req)
	if ae != nil {
		RespondError(c, ae)
		return
	}
	RespondOK(c, PredictResponse{Prediction: label})
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Readyz(c *gin.Context) {
	if h.pred == nil {
		RespondError(c, apierr.New(http.StatusServiceUnavailable, apierr.CodeNotReady, errors.New("model not loaded")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
