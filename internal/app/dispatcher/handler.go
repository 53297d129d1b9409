package dispatcher

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler interface {
	HandleAction(c *gin.Context)
}

type handler struct {
	service Service
}

func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// @Summary Run a tracking action
// @Description Execute one named action (start, stop, record_absence, ...) for a user
// @Tags Action
// @Accept json
// @Produce json
// @Param request body Request true "Action request"
// @Success 200 {object} Result
// @Failure 400 {object} Result
// @Router /api/action [post]
func (h *handler) HandleAction(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Result{
			Success:   false,
			ErrorCode: CodeUnknownAction,
			Message:   "malformed request body",
		})
		return
	}

	result := h.service.Dispatch(c.Request.Context(), req.UserID, req.Action, req.Data)
	c.JSON(http.StatusOK, result)
}
